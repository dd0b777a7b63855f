package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vitalics/folio/markdown"
)

// Collection directories below the content root.
const (
	blogDir     = "blog"
	authorsDir  = "authors"
	projectsDir = "projects"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Store reads posts, authors and projects from a content directory.
type Store struct {
	fs     afero.Fs
	dir    string
	md     *markdown.Renderer
	logger *zap.Logger
}

// NewStore returns a Store reading from dir on fsys.
func NewStore(fsys afero.Fs, dir string, md *markdown.Renderer, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fs: fsys, dir: dir, md: md, logger: logger}
}

// stringList accepts either a single YAML string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var many []string
	if err := unmarshal(&many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := unmarshal(&one); err != nil {
		return err
	}
	if one != "" {
		*l = []string{one}
	}
	return nil
}

type postMatter struct {
	Title       string     `yaml:"title" toml:"title" json:"title"`
	Description string     `yaml:"description" toml:"description" json:"description"`
	Date        string     `yaml:"date" toml:"date" json:"date"`
	PubDate     string     `yaml:"pubDate" toml:"pubDate" json:"pubDate"`
	Updated     string     `yaml:"updatedDate" toml:"updatedDate" json:"updatedDate"`
	Tags        stringList `yaml:"tags" toml:"tags" json:"tags"`
	Authors     stringList `yaml:"authors" toml:"authors" json:"authors"`
	Image       string     `yaml:"image" toml:"image" json:"image"`
	Hero        string     `yaml:"hero" toml:"hero" json:"hero"`
	HeroAlt     string     `yaml:"heroAlt" toml:"heroAlt" json:"heroAlt"`
	Telegram    string     `yaml:"telegram_channel" toml:"telegram_channel" json:"telegram_channel"`
	Draft       bool       `yaml:"draft" toml:"draft" json:"draft"`
}

type authorMatter struct {
	Name     string `yaml:"name" toml:"name" json:"name"`
	Pronouns string `yaml:"pronouns" toml:"pronouns" json:"pronouns"`
	Avatar   string `yaml:"avatar" toml:"avatar" json:"avatar"`
	Image    string `yaml:"image" toml:"image" json:"image"`
	Bio      string `yaml:"bio" toml:"bio" json:"bio"`
	Website  string `yaml:"website" toml:"website" json:"website"`
	GitHub   string `yaml:"github" toml:"github" json:"github"`
	Twitter  string `yaml:"twitter" toml:"twitter" json:"twitter"`
	LinkedIn string `yaml:"linkedin" toml:"linkedin" json:"linkedin"`
	Discord  string `yaml:"discord" toml:"discord" json:"discord"`
	Telegram string `yaml:"telegram" toml:"telegram" json:"telegram"`
	DevTo    string `yaml:"devto" toml:"devto" json:"devto"`
	Medium   string `yaml:"medium" toml:"medium" json:"medium"`
	Hashnode string `yaml:"hashnode" toml:"hashnode" json:"hashnode"`
	Mail     string `yaml:"mail" toml:"mail" json:"mail"`
}

type projectMatter struct {
	Name        string     `yaml:"name" toml:"name" json:"name"`
	Description string     `yaml:"description" toml:"description" json:"description"`
	Tags        stringList `yaml:"tags" toml:"tags" json:"tags"`
	Image       string     `yaml:"image" toml:"image" json:"image"`
	Link        string     `yaml:"link" toml:"link" json:"link"`
	Role        string     `yaml:"role" toml:"role" json:"role"`
}

// Load reads every collection and returns an immutable snapshot.
// Missing collection directories yield empty collections.
func (s *Store) Load() (*Content, error) {
	var (
		posts    []BlogPost
		authors  []Author
		projects []Project
	)
	var g errgroup.Group
	g.Go(func() (err error) {
		posts, err = s.loadPosts()
		return err
	})
	g.Go(func() (err error) {
		authors, err = s.loadAuthors()
		return err
	})
	g.Go(func() (err error) {
		projects, err = s.loadProjects()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newContent(posts, authors, projects), nil
}

type sourceFile struct {
	slug string
	path string
}

func (s *Store) list(collection string) ([]sourceFile, error) {
	dir := path.Join(s.dir, collection)
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []sourceFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		ext := path.Ext(name)
		if ext != ".md" && ext != ".mdx" {
			continue
		}
		files = append(files, sourceFile{slug: strings.TrimSuffix(name, ext), path: path.Join(dir, name)})
	}
	return files, nil
}

// parse reads front matter into v and returns the remaining body. A file
// with malformed front matter is reported with ok=false.
func (s *Store) parse(file sourceFile, v interface{}) (body []byte, ok bool, err error) {
	f, err := s.fs.Open(file.path)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", file.path, err)
	}
	defer f.Close()
	body, err = frontmatter.Parse(f, v)
	if err != nil {
		s.logger.Warn("skipping file with invalid front matter", zap.String("path", file.path), zap.Error(err))
		return nil, false, nil
	}
	return body, true, nil
}

func (s *Store) render(file sourceFile, body []byte) markdown.Document {
	doc, err := s.md.Render(body)
	if err != nil {
		s.logger.Warn("render failed", zap.String("path", file.path), zap.Error(err))
	}
	return doc
}

func (s *Store) loadPosts() ([]BlogPost, error) {
	files, err := s.list(blogDir)
	if err != nil {
		return nil, err
	}
	posts := make([]BlogPost, 0, len(files))
	for _, file := range files {
		var m postMatter
		body, ok, err := s.parse(file, &m)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc := s.render(file, body)
		p := BlogPost{
			Slug:            file.slug,
			Title:           strings.TrimSpace(m.Title),
			Description:     strings.TrimSpace(m.Description),
			Tags:            normalizeTags(m.Tags),
			Authors:         FilterEmpty(m.Authors),
			Image:           firstNonEmpty(m.Image, m.Hero),
			ImageAlt:        m.HeroAlt,
			TelegramChannel: m.Telegram,
			Draft:           m.Draft,
			Link:            "/blog/" + file.slug,
			ReadingTime:     doc.ReadingTime,
			Words:           doc.Words,
			Body:            string(body),
			HTML:            doc.HTML,
			Text:            doc.Text,
			TOC:             doc.TOC,
			SourcePath:      file.path,
		}
		if p.Title == "" {
			p.Title = titleFromSlug(file.slug)
		}
		if p.Description == "" {
			p.Description = markdown.Excerpt(doc.Text, 160)
		}
		p.Date = s.date(file, firstNonEmpty(m.Date, m.PubDate))
		if m.Updated != "" {
			p.Updated = s.date(file, m.Updated)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Store) date(file sourceFile, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		s.logger.Warn("post has no date", zap.String("path", file.path))
		return time.Time{}
	}
	if t, ok := parseDate(raw); ok {
		return t
	}
	s.logger.Warn("unparseable date", zap.String("path", file.path), zap.String("date", raw))
	return time.Time{}
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s *Store) loadAuthors() ([]Author, error) {
	files, err := s.list(authorsDir)
	if err != nil {
		return nil, err
	}
	authors := make([]Author, 0, len(files))
	for _, file := range files {
		var m authorMatter
		body, ok, err := s.parse(file, &m)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc := s.render(file, body)
		a := Author{
			Slug:     file.slug,
			Name:     strings.TrimSpace(m.Name),
			Pronouns: m.Pronouns,
			Avatar:   firstNonEmpty(m.Avatar, m.Image),
			Image:    m.Image,
			Bio:      strings.TrimSpace(m.Bio),
			Website:  m.Website,
			GitHub:   m.GitHub,
			Twitter:  m.Twitter,
			LinkedIn: m.LinkedIn,
			Discord:  m.Discord,
			Telegram: m.Telegram,
			DevTo:    m.DevTo,
			Medium:   m.Medium,
			Hashnode: m.Hashnode,
			Mail:     m.Mail,
			Link:     "/authors/" + file.slug,
			Body:     string(body),
			HTML:     doc.HTML,
			Text:     doc.Text,
		}
		if a.Name == "" {
			a.Name = titleFromSlug(file.slug)
		}
		authors = append(authors, a)
	}
	return authors, nil
}

func (s *Store) loadProjects() ([]Project, error) {
	files, err := s.list(projectsDir)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(files))
	for _, file := range files {
		var m projectMatter
		body, ok, err := s.parse(file, &m)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc := s.render(file, body)
		p := Project{
			Slug:        file.slug,
			Name:        strings.TrimSpace(m.Name),
			Description: strings.TrimSpace(m.Description),
			Tags:        normalizeTags(m.Tags),
			Image:       m.Image,
			Link:        m.Link,
			Role:        normalizeRole(m.Role),
			Body:        string(body),
			HTML:        doc.HTML,
		}
		if p.Name == "" {
			p.Name = titleFromSlug(file.slug)
		}
		projects = append(projects, p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Role != projects[j].Role {
			return projects[i].Role == RoleAuthor
		}
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	})
	return projects, nil
}

func normalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), RoleAuthor) {
		return RoleAuthor
	}
	return RoleContributor
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		tag := normalizeTag(t)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func titleFromSlug(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
