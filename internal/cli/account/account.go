package account

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/bloomup/internal/api"
	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/remote"
	"github.com/julianstephens/bloomup/internal/tui"
)

type LoginCmd struct {
	Email    string `help:"Account email. Prompted for when omitted."`
	Password string `help:"Account password. Prompted for when omitted." env:"BLOOMUP_PASSWORD"`
	Signup   bool   `help:"Create the account first."`
	Name     string `help:"Display name for --signup."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	form := tui.LoginFormModel{Name: c.Name, Email: c.Email, Password: c.Password}
	if form.Email == "" || form.Password == "" || (c.Signup && form.Name == "") {
		if err := tui.NewLoginForm(&form, c.Signup).Run(); err != nil {
			return fmt.Errorf("login cancelled: %w", err)
		}
	}
	email := strings.TrimSpace(form.Email)

	client, err := remote.New(ctx.APIURL)
	if err != nil {
		return err
	}
	if c.Signup {
		if _, err := client.Signup(bg, api.Signup{Email: email, Name: strings.TrimSpace(form.Name), Password: form.Password}); err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Printf("Created account for %s\n", email)
	}

	tok, err := client.Login(bg, email, form.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	authed, err := remote.New(ctx.APIURL, remote.WithStaticToken(tok.AccessToken))
	if err != nil {
		return err
	}
	user, err := authed.Me(bg)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.Save(bg, tok.AccessToken, user); err != nil {
		return fmt.Errorf("failed to store login: %w", err)
	}
	logger.Info("Logged in", "user_id", user.ID)
	fmt.Printf("✓ Logged in as %s (%s)\n", user.Name, user.Email)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := sess.Clear(bg); err != nil {
		return fmt.Errorf("failed to clear login: %w", err)
	}
	fmt.Println("✓ Logged out")
	return nil
}

type WhoamiCmd struct {
	Refresh bool `help:"Fetch the profile from the server instead of the cache."`
}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	sess, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	user, err := sess.User(bg)
	if c.Refresh || err != nil {
		client, cerr := ctx.RequireLogin(bg)
		if cerr != nil {
			return cerr
		}
		if user, err = client.Me(bg); err != nil {
			return err
		}
		if err := sess.Cache.SaveUser(bg, user); err != nil {
			logger.Warn("Failed to cache profile", "error", err)
		}
	}

	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	if user.Bio != "" {
		fmt.Println(user.Bio)
	}
	if user.ProfilePicture != "" {
		fmt.Printf("Avatar: %s\n", user.ProfilePicture)
	}
	return nil
}

type AvatarCmd struct {
	File string `arg:"" help:"Image to upload (png, jpg, gif or webp)." type:"existingfile"`
}

func (c *AvatarCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	user, err := client.UploadAvatar(bg, c.File, f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	sess, err := ctx.Session(bg)
	if err == nil {
		if err := sess.Cache.SaveUser(bg, user); err != nil {
			logger.Warn("Failed to cache profile", "error", err)
		}
	}
	fmt.Printf("✓ Avatar updated: %s\n", user.ProfilePicture)
	return nil
}

type ProfileCmd struct {
	Name     *string `help:"New display name."`
	Bio      *string `help:"New bio."`
	Password bool    `help:"Prompt for a new password."`
}

func (c *ProfileCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.RequireLogin(bg)
	if err != nil {
		return err
	}
	upd := api.UserUpdate{Name: c.Name, Bio: c.Bio}
	if c.Password {
		var pw string
		err := huh.NewInput().
			Title("New password").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if len(s) < 8 {
					return fmt.Errorf("at least 8 characters")
				}
				return nil
			}).
			Value(&pw).
			Run()
		if err != nil {
			return err
		}
		upd.Password = &pw
	}
	if upd.Name == nil && upd.Bio == nil && upd.Password == nil {
		return fmt.Errorf("nothing to update; pass --name, --bio or --password")
	}

	user, err := client.UpdateMe(bg, upd)
	if err != nil {
		return err
	}
	sess, err := ctx.Session(bg)
	if err == nil {
		if err := sess.Cache.SaveUser(bg, user); err != nil {
			logger.Warn("Failed to cache profile", "error", err)
		}
	}
	fmt.Println("✓ Profile updated")
	return nil
}
