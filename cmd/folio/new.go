package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalics/folio"
	"github.com/vitalics/folio/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName string
	SiteName    string
	Author      string
	AuthorSlug  string
	Date        string
}

func newNewCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:     "new <name>",
		Short:   "Create a new folio site",
		Example: "  folio new myblog --author \"Jane Doe\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd.OutOrStdout(), args[0], author, time.Now())
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "name of the first author (defaults to the site name)")
	return cmd
}

func runNew(out io.Writer, name, author string, now time.Time) error {
	// Derive project directory name from the last path segment.
	dirName := filepath.Base(filepath.Clean(name))
	target := filepath.Clean(name)

	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("directory %q already exists", target)
	}

	if author == "" {
		author = toTitle(dirName)
	}
	data := scaffoldData{
		ProjectName: dirName,
		SiteName:    toTitle(dirName),
		Author:      author,
		AuthorSlug:  authorSlug(author),
		Date:        now.Format("2006-01-02"),
	}

	fmt.Fprintf(out, "Creating new folio site: %s\n\n", target)

	root := "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(target, relPath)
		outPath = strings.TrimSuffix(outPath, ".tmpl")

		// The sample author file is named after the author.
		if filepath.Base(outPath) == "author.md" {
			outPath = filepath.Join(filepath.Dir(outPath), data.AuthorSlug+".md")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", target)
	fmt.Fprintln(out, "  folio serve --watch")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Write posts in content/blog, then run 'folio build' for a static copy.")
	fmt.Fprintln(out, "Set sessionSecret in config.yaml (or FOLIO_SESSIONSECRET) before deploying.")
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func authorSlug(name string) string {
	if s := folio.Slugify(name); s != "" {
		return s
	}
	return "author"
}
