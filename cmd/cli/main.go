// Command cli is a terminal client for the Mkulima's Table API. It
// keeps the login session in the user's config directory and refuses
// authenticated commands once the token has expired.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"mkulima/internal/client"
	"mkulima/internal/session"
)

const defaultAPI = "http://localhost:8080"

func main() {
	apiURL := flag.String("api", envOr("MKULIMA_API", defaultAPI), "API server base URL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	sess := session.NewManager(session.NewFileStorage(sessionPath()))
	api := client.New(*apiURL, sess)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch args[0] {
	case "login":
		err = runLogin(ctx, api)
	case "logout":
		err = api.Logout()
		if err == nil {
			fmt.Println("Logged out")
		}
	case "whoami":
		err = runWhoami(ctx, api, sess)
	case "users":
		err = runUsers(ctx, api, sess)
	case "forum":
		err = runForum(ctx, api, sess, args[1:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) ||
			errors.Is(err, session.ErrNotLoggedIn) ||
			errors.Is(err, session.ErrTokenExpired) {
			fmt.Fprintln(os.Stderr, "Session is missing or expired, run `mkulima login`")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mkulima [-api URL] <command>

Commands:
  login                     authenticate and store the session
  logout                    drop the stored session
  whoami                    show the logged-in user
  users                     list platform users
  forum list                show forum posts with replies
  forum post                publish a post (prompts for title and content)
  forum reply <post-id>     reply to a post (prompts for content)
  forum like <post-id>      toggle your like on a post
`)
}

// restore rehydrates the stored session before an authenticated
// command runs.
func restore(sess *session.Manager) error {
	_, err := sess.Restore()
	return err
}

func runLogin(ctx context.Context, api *client.Client) error {
	email := prompt("Email: ")

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	resp, err := api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", resp.User.Name, resp.User.Role)
	return nil
}

func runWhoami(ctx context.Context, api *client.Client, sess *session.Manager) error {
	if err := restore(sess); err != nil {
		return err
	}

	u, err := api.Me(ctx)
	if err != nil {
		return err
	}

	claims, err := sess.Claims()
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s> role=%s\n", u.Name, u.Email, u.Role)
	fmt.Printf("Session expires %s\n", claims.ExpiresAt.Format(time.RFC1123))
	return nil
}

func runUsers(ctx context.Context, api *client.Client, sess *session.Manager) error {
	if err := restore(sess); err != nil {
		return err
	}

	list, err := api.ListUsers(ctx)
	if err != nil {
		return err
	}

	for _, u := range list {
		fmt.Printf("%4d  %-25s %-30s %s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return nil
}

func runForum(ctx context.Context, api *client.Client, sess *session.Manager, args []string) error {
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if err := restore(sess); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		posts, err := api.ListPosts(ctx)
		if err != nil {
			return err
		}
		for _, p := range posts {
			liked := " "
			if p.Liked {
				liked = "*"
			}
			fmt.Printf("#%d %s%s (%s, %d likes, %d replies)\n",
				p.ID, liked, p.Title, p.UserName, p.Likes, len(p.Replies))
			for _, r := range p.Replies {
				fmt.Printf("    %s: %s\n", r.UserName, r.Content)
			}
		}
		return nil

	case "post":
		title := prompt("Title: ")
		content := prompt("Content: ")
		post, err := api.CreatePost(ctx, title, content)
		if err != nil {
			return err
		}
		fmt.Printf("Posted #%d\n", post.ID)
		return nil

	case "reply":
		postID, err := parsePostID(args)
		if err != nil {
			return err
		}
		content := prompt("Content: ")
		reply, err := api.AddReply(ctx, postID, content)
		if err != nil {
			return err
		}
		fmt.Printf("Replied to #%d\n", reply.PostID)
		return nil

	case "like":
		postID, err := parsePostID(args)
		if err != nil {
			return err
		}
		result, err := api.ToggleLike(ctx, postID)
		if err != nil {
			return err
		}
		if result.Liked {
			fmt.Printf("Liked, %d total\n", result.Likes)
		} else {
			fmt.Printf("Unliked, %d total\n", result.Likes)
		}
		return nil

	default:
		usage()
		os.Exit(2)
		return nil
	}
}

func parsePostID(args []string) (int64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("post id is required")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", args[1])
	}
	return id, nil
}

func prompt(label string) string {
	fmt.Print(label)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

// sessionPath places the token file under the user's config dir
func sessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "mkulima", "session")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
