package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

const flagSave = "save"

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Transcribe and summarize an audio file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		save, _ := cmd.Flags().GetBool(flagSave)
		return runUpload(cmd.Context(), cmd, path, save)
	},
}

func init() {
	uploadCmd.Flags().Bool(flagSave, false, "save the result after transcription")
}

func runUpload(parent context.Context, cmd *cobra.Command, path string, save bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	a, err := newApp(ctx, settings, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	file, err := audio.OpenLocalFile(path)
	if err != nil {
		return err
	}
	payload, err := audio.FromFile(file)
	if err != nil {
		return err
	}
	if _, err := a.store.Submit(ctx, types.SessionUpload, payload); err != nil {
		return a.render.reported(err)
	}
	if save {
		if _, err := a.store.Persist(ctx, types.SessionUpload); err != nil {
			return a.render.reported(err)
		}
	}
	return nil
}
