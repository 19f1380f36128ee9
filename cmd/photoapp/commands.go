package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/UnendingLoop/PhotoApp/internal/client"
	"github.com/spf13/cobra"
)

var imagesUserID int64

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Show number of stored objects (M) and users (N)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := api.Ping(ctx)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "M: %d\nN: %d\n", res.M, res.N)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		users, err := api.Users(ctx)
		if err != nil {
			return explain(err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USERID\tUSERNAME\tNAME")
		for _, u := range users {
			fmt.Fprintf(tw, "%d\t%s\t%s %s\n", u.UserID, u.Username, u.GivenName, u.FamilyName)
		}
		return tw.Flush()
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List uploaded images",
	Long: `List uploaded images, optionally only those of one user.

Examples:
  photoapp images
  photoapp images --userid 80001`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		var filter *int64
		if cmd.Flags().Changed("userid") {
			filter = &imagesUserID
		}

		assets, err := api.Images(ctx, filter)
		if err != nil {
			return explain(err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ASSETID\tUSERID\tFILENAME\tKEY")
		for _, a := range assets {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", a.AssetID, a.UserID, a.LocalName, a.BucketKey)
		}
		return tw.Flush()
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <userid> <file>",
	Short: "Upload an image on behalf of a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		assetID, err := api.Upload(ctx, userID, filepath.Base(args[1]), data)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded as asset %d\n", assetID)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <assetid> [file]",
	Short: "Download an image; saved under its original name unless file is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, args, api.Download, "")
	},
}

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail <assetid> [file]",
	Short: "Download the thumbnail of an image",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, args, api.Thumbnail, "thumb_")
	},
}

var labelsCmd = &cobra.Command{
	Use:   "labels <assetid>",
	Short: "Show labels detected for an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assetID, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		labels, err := api.Labels(ctx, assetID)
		if err != nil {
			return explain(err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LABEL\tCONFIDENCE")
		for _, l := range labels {
			fmt.Fprintf(tw, "%s\t%d\n", l.Name, l.Confidence)
		}
		return tw.Flush()
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <label>",
	Short: "Find images whose labels contain the given text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		hits, err := api.Search(ctx, args[0])
		if err != nil {
			return explain(err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ASSETID\tLABEL\tCONFIDENCE")
		for _, h := range hits {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", h.AssetID, h.Name, h.Confidence)
		}
		return tw.Flush()
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all images and labels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := api.Clear(ctx); err != nil {
			return explain(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cleared")
		return nil
	},
}

func init() {
	imagesCmd.Flags().Int64Var(&imagesUserID, "userid", 0, "Only images of this user")
}

func runDownload(cmd *cobra.Command, args []string, load func(context.Context, int64) (*client.Download, error), prefix string) error {
	assetID, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	d, err := load(ctx, assetID)
	if err != nil {
		return explain(err)
	}

	target := prefix + filepath.Base(d.LocalFilename)
	if len(args) == 2 {
		target = args[1]
	}
	if err := os.WriteFile(target, d.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "asset %d of user %d saved to %s\n", assetID, d.UserID, target)
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// explain - сообщение сервера для 4xx, общий текст для остального
func explain(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("photo API unreachable: %w", err)
	}
	if errors.Is(err, client.ErrCaller) {
		return fmt.Errorf("request rejected: %s", apiErr.Message)
	}
	return fmt.Errorf("server error: %s", apiErr.Message)
}
