package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <email> <folder-path> [folder-path...]",
	Short: "Register reference images from folders",
	Long: `Register every image found in one or more folders as reference images
for a user. Images are appended to the user's gallery as foto1.jpg, foto2.jpg, ...

By default, only files in the specified folders are used (non-recursive).
Use -r to search recursively in subdirectories.
Supported formats: jpg, jpeg, png, gif, bmp, webp, tiff

Example:
  face-attendance enroll alice@example.edu /path/to/photos
  face-attendance enroll -r alice@example.edu /path/to/photos  # recursive search`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.Flags().BoolP("recursive", "r", false, "Search for images recursively in subdirectories")
}

// collectImageFiles lists image files in folders, sorted per folder.
func collectImageFiles(folderPaths []string, recursive bool) ([]string, error) {
	var filePaths []string
	for _, folderPath := range folderPaths {
		info, err := os.Stat(folderPath)
		if err != nil {
			return nil, fmt.Errorf("cannot access folder %s: %w", folderPath, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", folderPath)
		}

		if recursive {
			err := filepath.WalkDir(folderPath, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && gallery.IsImageName(d.Name()) {
					filePaths = append(filePaths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", folderPath, err)
			}
			continue
		}

		entries, err := os.ReadDir(folderPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", folderPath, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && gallery.IsImageName(entry.Name()) {
				filePaths = append(filePaths, filepath.Join(folderPath, entry.Name()))
			}
		}
	}
	return filePaths, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gallery.Decode(f)
}

// enroll registers each file separately so one unreadable image does not
// abort the batch. It returns the stored slot names and per-file failures.
func enroll(ctx context.Context, svc *attendance.Service, email string, filePaths []string, bar *progressbar.ProgressBar) ([]string, []string) {
	var (
		slots    []string
		failures []string
	)
	for _, filePath := range filePaths {
		fileName := filepath.Base(filePath)

		img, err := decodeFile(filePath)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fileName, err))
			bar.Add(1)
			continue
		}

		reg, err := svc.Register(ctx, email, []image.Image{img})
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fileName, err))
			bar.Add(1)
			continue
		}
		slots = append(slots, reg.Images...)
		bar.Add(1)
	}
	return slots, failures
}

func newProgressBar(count int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	email := args[0]
	folderPaths := args[1:]
	recursive := mustGetBool(cmd, "recursive")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	filePaths, err := collectImageFiles(folderPaths, recursive)
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		fmt.Println("No image files found in the specified folders.")
		return nil
	}

	ctx := context.Background()
	store, err := gallery.New(ctx, cfg.Gallery)
	if err != nil {
		return fmt.Errorf("failed to open gallery: %w", err)
	}
	// Registration only touches the gallery.
	svc := attendance.NewService(store, nil, nil)

	fmt.Printf("Found %d image(s) to register for %s from %d folder(s)\n\n", len(filePaths), email, len(folderPaths))

	slots, failures := enroll(ctx, svc, email, filePaths, newProgressBar(len(filePaths), "Registering"))
	fmt.Println()

	for _, msg := range failures {
		fmt.Printf("Failed: %s\n", msg)
	}
	if len(slots) == 0 {
		return fmt.Errorf("no images were registered")
	}

	fmt.Printf("\nDone! Registered %d image(s) for %s\n", len(slots), email)
	return nil
}
