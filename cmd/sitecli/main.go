// sitecli is a small terminal client for the site backend, mainly for
// poking at a dev or staging deployment: sign in, browse content, submit
// forms, all through the same client/session layer the applications use.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/victoai/go-site-client/apierror"
	"github.com/victoai/go-site-client/cache"
	"github.com/victoai/go-site-client/client"
	"github.com/victoai/go-site-client/content"
	"github.com/victoai/go-site-client/internal/config"
	"github.com/victoai/go-site-client/internal/utils"
	"github.com/victoai/go-site-client/leads"
	"github.com/victoai/go-site-client/session"
	"github.com/victoai/go-site-client/userauth"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("sitecli failed")
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if err := godotenv.Load(); err != nil {
		// Not an error: env vars may come from the shell.
		log.Debug().Msg("No .env file found, using environment")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.New()
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if len(os.Args) < 2 {
		displayAppname(cfg.GetAppName())
		usage()
		return nil
	}

	store := session.NewFileStore(cfg.GetSessionFile())
	apiClient, err := client.New(client.Options{
		BaseURL: cfg.GetBaseURL(),
		Timeout: time.Duration(cfg.GetRequestTimeoutMS()) * time.Millisecond,
		Store:   store,
		Notifier: apierror.NotifierFunc(func(e *apierror.Error) {
			fmt.Fprintf(os.Stderr, "! %s\n", e.Message)
		}),
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "Your session has expired. Run `sitecli login` to sign in again.")
		},
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	contentSvc := content.NewService(apiClient, cache.NewMemoryCache())
	authSvc := userauth.NewService(apiClient, store)
	leadsSvc := leads.NewService(apiClient, cfg.NewsletterEnabled())

	switch os.Args[1] {
	case "login":
		return login(ctx, authSvc)
	case "logout":
		return authSvc.Logout(ctx)
	case "profile":
		return showProfile(ctx, authSvc)
	case "posts":
		return listPosts(ctx, contentSvc)
	case "post":
		return showPost(ctx, contentSvc)
	case "studies":
		return listStudies(ctx, contentSvc)
	case "categories":
		return listCategories(ctx, contentSvc)
	case "comment":
		if !cfg.CommentsEnabled() {
			return errors.New("comments are disabled on this deployment")
		}
		return postComment(ctx, contentSvc)
	case "subscribe":
		return subscribe(ctx, leadsSvc)
	default:
		usage()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func usage() {
	fmt.Println("Commands:")
	fmt.Println("  login <username> <password>   Sign in and persist the session")
	fmt.Println("  logout                        Sign out")
	fmt.Println("  profile                       Show the signed-in user's profile")
	fmt.Println("  posts                         List blog posts")
	fmt.Println("  post <slug>                   Show one blog post")
	fmt.Println("  studies                       List case studies")
	fmt.Println("  categories                    List categories")
	fmt.Println("  comment <post-id> <text>      Comment on a blog post")
	fmt.Println("  subscribe <email>             Subscribe to the newsletter")
}

func login(ctx context.Context, svc *userauth.Service) error {
	if len(os.Args) < 4 {
		return errors.New("usage: sitecli login <username> <password>")
	}
	result, err := svc.Login(ctx, userauth.Credentials{Username: os.Args[2], Password: os.Args[3]})
	if err != nil {
		return err
	}
	if result.User != nil {
		fmt.Printf("Signed in as %s\n", result.User.Username)
	} else {
		fmt.Println("Signed in")
	}
	return nil
}

func showProfile(ctx context.Context, svc *userauth.Service) error {
	user, err := svc.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Username, user.Email)
	return nil
}

func listPosts(ctx context.Context, svc *content.Service) error {
	page, err := svc.BlogPosts(ctx, content.ListParams{})
	if err != nil {
		return err
	}
	for _, post := range page.Results {
		fmt.Printf("%-40s %s (%d views)\n", post.Slug, post.Title, post.Views)
	}
	fmt.Printf("%d posts\n", page.Count)
	return nil
}

func showPost(ctx context.Context, svc *content.Service) error {
	if len(os.Args) < 3 {
		return errors.New("usage: sitecli post <slug>")
	}
	slug := os.Args[2]
	post, err := svc.BlogPost(ctx, slug)
	if err != nil {
		return err
	}
	svc.IncrementBlogPostViews(ctx, slug, func(err error) {
		log.Debug().Err(err).Str("slug", slug).Msg("View increment failed")
	})
	fmt.Printf("%s\n\n%s\n", post.Title, post.Excerpt)
	return nil
}

func listStudies(ctx context.Context, svc *content.Service) error {
	page, err := svc.CaseStudies(ctx, content.CaseStudyParams{})
	if err != nil {
		return err
	}
	for _, study := range page.Results {
		fmt.Printf("%-40s %s\n", study.Slug, study.Title)
	}
	return nil
}

func listCategories(ctx context.Context, svc *content.Service) error {
	categories, err := svc.Categories(ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		fmt.Printf("%-24s %s\n", category.Slug, category.Name)
	}
	return nil
}

func postComment(ctx context.Context, svc *content.Service) error {
	if len(os.Args) < 4 {
		return errors.New("usage: sitecli comment <post-id> <text>")
	}
	postID, err := strconv.Atoi(os.Args[2])
	if err != nil {
		return fmt.Errorf("post id must be a number: %w", err)
	}
	created, err := svc.CreateComment(ctx, content.NewComment{
		Content:  os.Args[3],
		BlogPost: utils.Ptr(postID),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Comment #%d posted (pending approval)\n", created.ID)
	return nil
}

func subscribe(ctx context.Context, svc *leads.Service) error {
	if len(os.Args) < 3 {
		return errors.New("usage: sitecli subscribe <email>")
	}
	if err := svc.SubscribeNewsletter(ctx, leads.NewsletterSignup{Email: os.Args[2]}); err != nil {
		return err
	}
	fmt.Println("Subscribed")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
