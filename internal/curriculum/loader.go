package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const notesSuffix = ".notes.md"

// Loader loads and caches course content from the filesystem.
type Loader struct {
	rootDir   string
	languages map[string]Language
	notes     map[string]map[string]string // language ID -> lesson ID -> markdown
	mu        sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:   rootDir,
		languages: make(map[string]Language),
		notes:     make(map[string]map[string]string),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	notes := 0
	for _, n := range l.notes {
		notes += len(n)
	}
	slog.Info("curriculum loaded", "languages", len(l.languages), "notes", notes)
	return l, nil
}

// GetLanguage returns a deep copy of the language with the given ID.
func (l *Loader) GetLanguage(id string) (Language, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lang, ok := l.languages[id]
	if !ok {
		return Language{}, false
	}
	return lang.Clone(), true
}

// AllLanguages returns all loaded languages sorted by name.
func (l *Loader) AllLanguages() []Language {
	l.mu.RLock()
	defer l.mu.RUnlock()
	langs := make([]Language, 0, len(l.languages))
	for _, lang := range l.languages {
		langs = append(langs, lang.Clone())
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Name < langs[j].Name })
	return langs
}

// GetNotes returns the markdown notes for a lesson of a language.
func (l *Loader) GetNotes(languageID, lessonID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.notes[languageID][lessonID]
	return n, ok
}

// Put replaces a language, e.g. after an admin edit.
func (l *Loader) Put(lang Language) {
	lang = lang.Clone()
	SortTree(&lang)

	l.mu.Lock()
	l.languages[lang.ID] = lang
	l.mu.Unlock()
}

// loadAll reads every course document under rootDir. Notes files belong to
// the course documents in the same directory.
func (l *Loader) loadAll() error {
	notesByDir := make(map[string]map[string]string)
	courseDirs := make(map[string]string)

	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, notesSuffix):
			lessonID, text, err := readNotes(path)
			if err != nil || lessonID == "" {
				return err
			}
			dir := filepath.Dir(path)
			if notesByDir[dir] == nil {
				notesByDir[dir] = make(map[string]string)
			}
			notesByDir[dir][lessonID] = text
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			lang, ok, err := readLanguage(path)
			if err != nil || !ok {
				return err
			}
			l.mu.Lock()
			if _, dup := l.languages[lang.ID]; dup {
				slog.Warn("duplicate language id, later file wins", "id", lang.ID, "path", path)
			}
			l.languages[lang.ID] = lang
			l.mu.Unlock()
			courseDirs[lang.ID] = filepath.Dir(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, dir := range courseDirs {
		if notes := notesByDir[dir]; len(notes) > 0 {
			l.notes[id] = notes
		}
	}
	return nil
}

// readLanguage parses one course document. Invalid documents are skipped
// with a warning and report ok == false.
func readLanguage(path string) (Language, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Language{}, false, err
	}

	if err := ValidateDocument(data); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return Language{}, false, nil
	}

	var lang Language
	if err := yaml.Unmarshal(data, &lang); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return Language{}, false, nil
	}

	if err := lang.CheckUniqueIDs(); err != nil {
		slog.Warn("skipping course YAML with duplicate ids", "path", path, "error", err)
		return Language{}, false, nil
	}

	SortTree(&lang)
	return lang, true, nil
}

func readNotes(path string) (lessonID, text string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSuffix(filepath.Base(path), notesSuffix), string(data), nil
}
