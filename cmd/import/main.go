// Command import uploads a directory of markdown files as drafts.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/draftdesk/internal/blogapi"
	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/logger"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/render"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Saver is the part of the API the importer writes to.
type Saver interface {
	SaveDraft(ctx context.Context, in model.PostInput) (*model.Post, error)
	Publish(ctx context.Context, in model.PostInput) (*model.Post, error)
}

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	publish := flag.Bool("publish", false, "Publish the posts instead of saving drafts")
	tags := flag.String("tags", "", "Comma separated tags for every imported post")
	flag.Parse()

	_ = godotenv.Load()

	if err := config.LoadConfig(config.Path()); err != nil {
		bootLogger := logger.New("info")
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.AppConfig
	log := logger.New(cfg.Logging.Level)

	if *path == "" {
		log.Fatal().Msg("The --path flag is required")
	}

	client := blogapi.New(cfg.Client.BaseURL, cfg.Client.RequestTimeout)
	imported, err := importDir(context.Background(), log, client, *path, model.ParseTags(*tags), *publish, cfg.Preview.SyntaxStyle)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Import failed")
	}
	log.Info().Int("posts", imported).Msg("Import finished")
}

// importDir uploads every .md file in dir. Files that fail are logged and
// skipped.
func importDir(ctx context.Context, log zerolog.Logger, api Saver, dir string, tags []string, publish bool, theme string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "reading directory %s", dir)
	}

	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		post, err := importFile(ctx, api, filepath.Join(dir, file.Name()), tags, publish, theme)
		if err != nil {
			log.Error().Err(err).Str("file", file.Name()).Msg("Error processing file")
			continue
		}

		imported++
		log.Info().Str("file", file.Name()).Str("post_id", string(post.ID)).Str("status", string(post.Status)).Msg("Imported")
	}

	return imported, nil
}

func importFile(ctx context.Context, api Saver, path string, tags []string, publish bool, theme string) (*model.Post, error) {
	md, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Use the first heading if there is one, otherwise the file name
	title := render.Title(md)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	in := model.PostInput{
		Title:   title,
		Content: string(render.MarkdownToHTML(md, theme)),
		Tags:    tags,
	}

	if publish {
		return api.Publish(ctx, in)
	}
	return api.SaveDraft(ctx, in)
}
