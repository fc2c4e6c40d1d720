package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hairstudio/internal/client"
	"hairstudio/internal/domain"
	"hairstudio/internal/storage"
	"hairstudio/pkg/zip"
)

var stylesGender string

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List styles and colors in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Styles (%s):\n", stylesGender)
		for _, s := range cat.StylesFor(domain.Gender(stylesGender)) {
			fmt.Fprintf(out, "  %-14s %s: %s\n", s.ID, client.DisplayName(s.Name), s.Description)
		}
		fmt.Fprintln(out, "Colors:")
		for _, c := range cat.Colors {
			fmt.Fprintf(out, "  %-14s %s (%s)\n", c.ID, client.DisplayName(c.Name), c.PromptValue)
		}
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the signed-in user's plan and trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := newAPIClient().Me(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", me.Email, me.ID)
		if me.IsSubscribed {
			fmt.Fprintf(out, "subscribed: %s\n", me.SubscriptionType)
		} else {
			fmt.Fprintf(out, "trial previews left: %d\n", me.TrialBalance)
		}
		return nil
	},
}

var previewFlags struct {
	photo    string
	style    string
	color    string
	gender   string
	angles   []string
	outDir   string
	zipPath  string
	debounce time.Duration
	timeout  time.Duration
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a style on a photo (or on a model with no photo) and save the results",
	Example: `  studio preview --photo me.jpg --style butterfly-cut --color blonde --angle Front --angle Side
  studio preview --style leaf-cut --gender male --zip previews.zip`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd.Context(), cmd)
	},
}

var checkoutPlan string

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Start a subscription checkout and print its URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := newAPIClient()
		me, err := api.Me(cmd.Context())
		if err != nil {
			return err
		}
		handle := client.NewCheckoutHandle(func() (client.CheckoutOpener, error) {
			if api.Token() == "" {
				return nil, fmt.Errorf("%w: no session token", domain.ErrAuth)
			}
			return api, nil
		})
		sess, err := handle.Open(cmd.Context(), checkoutPlan, me)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Complete your %s subscription at:\n%s\n", checkoutPlan, sess.URL)
		return nil
	},
}

func init() {
	stylesCmd.Flags().StringVar(&stylesGender, "gender", string(domain.GenderFemale), "female or male")

	f := previewCmd.Flags()
	f.StringVar(&previewFlags.photo, "photo", "", "photo to restyle; omit to render on a generated model")
	f.StringVar(&previewFlags.style, "style", "", "style id (see 'studio styles')")
	f.StringVar(&previewFlags.color, "color", client.DefaultColorID, "color id")
	f.StringVar(&previewFlags.gender, "gender", string(domain.GenderFemale), "female or male")
	f.StringSliceVar(&previewFlags.angles, "angle", []string{string(domain.AngleFront)}, "angles to render (Front, Side, Back)")
	f.StringVar(&previewFlags.outDir, "out", "previews", "directory previews are saved under")
	f.StringVar(&previewFlags.zipPath, "zip", "", "also bundle the session's previews into this zip file")
	f.DurationVar(&previewFlags.debounce, "debounce", client.DefaultDebounce, "quiet period before a selection is generated")
	f.DurationVar(&previewFlags.timeout, "timeout", 2*time.Minute, "per-preview timeout")
	_ = previewCmd.MarkFlagRequired("style")

	checkoutCmd.Flags().StringVar(&checkoutPlan, "plan", string(domain.SubscriptionMonthly), "monthly or yearly")
}

func runPreview(ctx context.Context, cmd *cobra.Command) error {
	logger := newLogger()
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	angles := make([]domain.Angle, 0, len(previewFlags.angles))
	for _, raw := range previewFlags.angles {
		a, err := domain.ParseAngle(raw)
		if err != nil {
			return err
		}
		angles = append(angles, a)
	}
	store, err := storage.NewFileStore(previewFlags.outDir)
	if err != nil {
		return err
	}

	api := newAPIClient()
	sess := client.NewSession(client.NewBus())
	sched := client.NewScheduler(sess, api, cat, client.SchedulerOptions{
		Debounce: previewFlags.debounce,
		Timeout:  previewFlags.timeout,
		Logger:   &logger,
	})
	defer sched.Close()

	// Server record is authoritative at session start.
	if api.Token() != "" {
		me, err := api.Me(ctx)
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		sess.SignIn(*me)
	}

	if previewFlags.photo != "" {
		dataURL, err := readPhoto(previewFlags.photo)
		if err != nil {
			return err
		}
		sess.SetSourceImage(dataURL)
	} else {
		sess.SkipUpload()
	}
	sess.SelectGender(domain.Gender(previewFlags.gender))
	sess.SelectColor(previewFlags.color)

	sessionID := uuid.NewString()
	var saved []string
	for i, angle := range angles {
		w := watch(sess)
		if i == 0 {
			sess.SelectStyle(previewFlags.style)
		}
		sess.SetAngle(angle)
		key := domain.GenerationKey{StyleID: previewFlags.style, ColorID: previewFlags.color, Angle: angle}

		waitCtx, cancel := context.WithTimeout(ctx, previewFlags.timeout+previewFlags.debounce)
		url, err := w.wait(waitCtx, sess, key)
		cancel()
		w.stop()
		if err != nil {
			return err
		}
		stored, err := store.SavePreview(ctx, sessionID, key, url)
		if err != nil {
			return err
		}
		saved = append(saved, stored)
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", angle, filepath.Join(store.BasePath(), filepath.FromSlash(stored)))
	}

	if u := sess.User(); u != nil && !u.IsSubscribed {
		fmt.Fprintf(cmd.OutOrStdout(), "trial previews left: %d\n", u.TrialBalance)
	}
	if previewFlags.zipPath != "" {
		return writeZip(store, saved, previewFlags.zipPath)
	}
	return nil
}

// watcher wakes a waiter whenever a generation settles or a modal flips.
type watcher struct {
	ch   chan struct{}
	stop func()
}

func watch(sess *client.Session) *watcher {
	w := &watcher{ch: make(chan struct{}, 1)}
	w.stop = sess.Bus().Subscribe(func(ev client.Event) {
		switch ev.Kind {
		case client.EventGenerationFinished, client.EventGenerationFailed, client.EventModalChanged:
			select {
			case w.ch <- struct{}{}:
			default:
			}
		}
	})
	return w
}

func (w *watcher) wait(ctx context.Context, sess *client.Session, key domain.GenerationKey) (string, error) {
	for {
		if url, ok := sess.Cache().Get(key); ok {
			return url, nil
		}
		snap := sess.Snapshot()
		switch {
		case snap.SignInOpen:
			return "", fmt.Errorf("%w: pass --token or set HAIRSTUDIO_TOKEN", domain.ErrAuth)
		case snap.PricingOpen:
			return "", errors.New("no trial previews left; run 'studio checkout --plan monthly' to subscribe")
		case snap.Err != nil:
			return "", snap.Err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-w.ch:
		}
	}
}

func readPhoto(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: %s is not an image (%s)", domain.ErrValidation, path, mimeType)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func writeZip(store *storage.FileStore, keys []string, dest string) error {
	assets := make([]zip.Asset, 0, len(keys))
	for _, key := range keys {
		data, err := store.Read(key)
		if err != nil {
			return err
		}
		assets = append(assets, zip.Asset{Filename: key, Data: data})
	}
	raw, err := zip.ArchiveAssets(assets, time.Now())
	if err != nil {
		return err
	}
	return os.WriteFile(dest, raw, 0o644)
}
