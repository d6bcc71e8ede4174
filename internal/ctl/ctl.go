// Package ctl implements localbizctl, the operator command line for
// administrative tasks run directly against the configured store.
package ctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/localbizsite/localbiz/internal/flagx"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/netx"
	"github.com/localbizsite/localbiz/internal/server"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/config"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/services"
	"github.com/localbizsite/localbiz/internal/timex"
)

const usage = `usage: localbizctl <command> [flags]

commands:
  create-admin -email <address>   create an admin account or promote an existing one
  migrate                         apply pending database migrations
  upload-image -business <id> -file <path>
                                  upload a listing image to object storage and attach it
`

// openStore is a test seam for server.OpenStore.
var openStore = server.OpenStore

// httpClient performs uploads to presigned URLs.
var httpClient = &http.Client{Timeout: 2 * time.Minute}

// operator acts on behalf of the person running the tool, who already has
// direct access to the store.
var operator = &models.Account{ID: "localbizctl", Name: "localbizctl", Role: models.RoleAdmin, IsActive: true}

var errUsage = errors.New("invalid usage")

// CommandArgs drops the configuration flags LoadConfig already consumed so
// only the command and its own flags remain.
func CommandArgs(args []string) []string {
	return flagx.StripArgs(args, config.CommandLineFlags())
}

// Run executes one command. args excludes the program name.
func Run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	switch args[0] {
	case "create-admin":
		return createAdmin(ctx, cfg, args[1:], out)
	case "migrate":
		return migrate(ctx, cfg, out)
	case "upload-image":
		return uploadImage(ctx, cfg, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprintf(out, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func createAdmin(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "admin email address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" {
		fmt.Fprintln(out, "-email is required")
		return errUsage
	}
	if !auth.ValidEmail(auth.NormalizeEmail(*email)) {
		return fmt.Errorf("%q is not a valid email address", *email)
	}

	password, err := GetNewPassword(out)
	if err != nil {
		return err
	}
	if weak := auth.PasswordWeaknesses(password); len(weak) > 0 {
		return fmt.Errorf("weak password: %s", weak[0])
	}

	clock := timex.RealClock{}
	rm, err := openStore(ctx, cfg, clock)
	if err != nil {
		return err
	}
	defer rm.Close()

	accounts := server.NewAccountService(cfg, rm, clock, logging.Discard())
	a, created, err := accounts.EnsureAdmin(ctx, *email, password)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "created admin %s (%s)\n", a.Email, a.ID)
	} else {
		fmt.Fprintf(out, "%s is an admin (%s)\n", a.Email, a.ID)
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.DatabaseDSN == "" {
		return errors.New("no database configured")
	}
	rm, err := openStore(ctx, cfg, timex.RealClock{})
	if err != nil {
		return err
	}
	defer rm.Close()

	fmt.Fprintln(out, "migrations applied")
	return nil
}

func uploadImage(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("upload-image", flag.ContinueOnError)
	fs.SetOutput(out)
	businessID := fs.String("business", "", "business id")
	path := fs.String("file", "", "image file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *businessID == "" || *path == "" {
		fmt.Fprintln(out, "-business and -file are required")
		return errUsage
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return err
	}
	contentType, _, _ := strings.Cut(mime.TypeByExtension(strings.ToLower(filepath.Ext(*path))), ";")

	clock := timex.RealClock{}
	rm, err := openStore(ctx, cfg, clock)
	if err != nil {
		return err
	}
	defer rm.Close()

	log := logging.Discard()
	businesses := services.NewBusinessService(rm, log)
	media := services.NewMediaService(cfg, businesses, clock, log)

	u, err := media.ImageUploadURL(ctx, operator, *businessID, contentType)
	if err != nil {
		return err
	}
	if err := netx.PutPresigned(ctx, httpClient, u.URL, u.ContentType, data); err != nil {
		return err
	}
	if _, err := businesses.AddImage(ctx, operator, *businessID, u.Key); err != nil {
		return err
	}

	fmt.Fprintf(out, "uploaded %s (%d bytes)\n", u.Key, len(data))
	return nil
}
