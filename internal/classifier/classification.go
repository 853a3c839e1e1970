package classifier

import (
	"net/url"
	"path/filepath"
)

// Classification is the result of classifying a root artifact's classpath.
type Classification struct {
	ContainerURLs            []*url.URL
	ApplicationURLs          []*url.URL
	PluginClassificationURLs []PluginURLClassification
	PluginSharedLibURLs      []*url.URL
}

// PluginURLClassification is the classpath of a single plugin.
type PluginURLClassification struct {
	Name string // groupId:artifactId
	URLs []*url.URL
}

// fileURL converts a resolved file path to an absolute file URL.
func fileURL(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// urlSet accumulates file URLs in insertion order without duplicates.
type urlSet struct {
	urls []*url.URL
	seen map[string]bool
}

func newURLSet() *urlSet {
	return &urlSet{seen: make(map[string]bool)}
}

func (s *urlSet) add(path string) error {
	u, err := fileURL(path)
	if err != nil {
		return err
	}
	key := u.String()
	if s.seen[key] {
		return nil
	}
	s.seen[key] = true
	s.urls = append(s.urls, u)
	return nil
}

// addAll adds paths not present in any of the excluded sets.
func (s *urlSet) addAll(paths []string, excluded ...*urlSet) error {
	for _, p := range paths {
		u, err := fileURL(p)
		if err != nil {
			return err
		}
		if containsAny(u.String(), excluded) {
			continue
		}
		if err := s.add(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *urlSet) contains(key string) bool {
	return s.seen[key]
}

func containsAny(key string, sets []*urlSet) bool {
	for _, set := range sets {
		if set != nil && set.contains(key) {
			return true
		}
	}
	return false
}
