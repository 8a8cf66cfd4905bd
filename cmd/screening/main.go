// Command screening submits a captured screening session to a running
// API instance. It drives the same wizard flow the web client uses:
// record count first, then the video, image and EEG uploads in order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/redmonkez12/neuroscreen/internal/screening/wizard"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "base URL of the API")
		token     = flag.String("token", "", "session token (required)")
		userID    = flag.String("user", "", "participant user ID (required)")
		videoPath = flag.String("video", "", "path to the selfie video (required)")
		imagePath = flag.String("image", "", "path to the selfie image (required)")
		eegPath   = flag.String("eeg", "", "path to the EEG CSV export (required)")
	)
	flag.Parse()

	if *token == "" || *userID == "" || *videoPath == "" || *imagePath == "" || *eegPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*serverURL, *token, *userID, *videoPath, *imagePath, *eegPath); err != nil {
		log.Fatalf("screening failed: %v", err)
	}
}

func run(serverURL, token, userID, videoPath, imagePath, eegPath string) error {
	client := wizard.NewClient(serverURL, token)
	w := wizard.New(client, userID)

	if err := w.Start(); err != nil {
		return err
	}

	captures := []struct {
		path    string
		capture func(*wizard.Artifact) error
	}{
		{videoPath, w.CaptureVideo},
		{imagePath, w.CaptureImage},
		{eegPath, w.CaptureEEG},
	}
	for _, c := range captures {
		f, err := os.Open(c.path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", c.path, err)
		}
		defer f.Close()

		if err := c.capture(&wizard.Artifact{Filename: filepath.Base(c.path), Data: f}); err != nil {
			return err
		}
	}

	if err := w.Submit(context.Background()); err != nil {
		state := w.State()
		if state.FailedStage != nil {
			return fmt.Errorf("submission failed at stage %s: %w", *state.FailedStage, err)
		}
		return err
	}

	state := w.State()
	fmt.Printf("screening submitted, %d record(s) were already on file\n", state.RecordCount)
	return nil
}
