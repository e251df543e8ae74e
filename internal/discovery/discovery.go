package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/railwayapp/envtrace/internal/logger"
)

// FormatKubernetes names the detector that skaffold manifest hints feed
const FormatKubernetes = "kubernetes"

// Candidate is a file to scan with one format
type Candidate struct {
	Path   string
	Format string
}

// Detector decides whether a file belongs to a format. Format extractors
// satisfy it directly.
type Detector interface {
	Name() string // format name
	CanHandle(path string) bool
}

// ContentDetector is a Detector that can also claim YAML files by content
// when its path hints did not match
type ContentDetector interface {
	Detector
	MatchContent(content []byte) bool
}

// Scanner handles recursive discovery using registered detectors
type Scanner struct {
	filesystem filesystems.FileSystem
	detectors  []Detector
	exclude    []string
	log        logger.Logger
}

func NewScanner(filesystem filesystems.FileSystem, exclude []string, log logger.Logger) *Scanner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scanner{
		filesystem: filesystem,
		exclude:    exclude,
		log:        log.WithFields(logger.Fields{"component": "discovery"}),
	}
}

// NewScannerWithDetectors creates a scanner with the provided detectors
func NewScannerWithDetectors(filesystem filesystems.FileSystem, exclude []string, log logger.Logger, detectors ...Detector) *Scanner {
	scanner := NewScanner(filesystem, exclude, log)
	for _, detector := range detectors {
		scanner.RegisterDetector(detector)
	}
	return scanner
}

func (s *Scanner) RegisterDetector(detector Detector) {
	s.detectors = append(s.detectors, detector)
}

// Discover walks root and returns every (file, format) pair to scan, ordered
// by path and then detector registration order. A file may belong to several
// formats.
func (s *Scanner) Discover(ctx context.Context, root string) ([]Candidate, error) {
	var (
		candidates []Candidate
		yamlFiles  []string
		skaffolds  []string
	)
	seen := make(map[Candidate]bool)

	add := func(c Candidate) {
		if !seen[c] {
			seen[c] = true
			candidates = append(candidates, c)
		}
	}

	err := s.filesystem.Walk(root, func(path string, info filesystems.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable entries are skipped, the rest of the tree still counts
			s.log.Warn(fmt.Sprintf("skipping %s: %v", path, err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := s.filesystem.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if IsExcluded(rel, s.exclude) {
			if info.IsDir() {
				s.log.Trace(fmt.Sprintf("skipping excluded directory %s", rel))
				return filesystems.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		name := strings.ToLower(info.Name())
		if isSkaffoldConfig(name) {
			skaffolds = append(skaffolds, path)
		}
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			yamlFiles = append(yamlFiles, path)
		}

		for _, detector := range s.detectors {
			// Directory hints only apply below root
			if detector.CanHandle(rel) {
				add(Candidate{Path: path, Format: detector.Name()})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	if s.hasDetector(FormatKubernetes) {
		for _, configPath := range skaffolds {
			for _, manifest := range s.skaffoldManifests(configPath, yamlFiles) {
				add(Candidate{Path: manifest, Format: FormatKubernetes})
			}
		}
	}

	s.matchContent(yamlFiles, seen, add)

	s.sort(candidates)
	s.log.Debug(fmt.Sprintf("discovered %d candidate files", len(candidates)))
	return candidates, nil
}

// matchContent offers YAML files that are not yet candidates of a content
// detector to that detector. Skaffold configs are never offered.
func (s *Scanner) matchContent(yamlFiles []string, seen map[Candidate]bool, add func(Candidate)) {
	for _, detector := range s.detectors {
		content, ok := detector.(ContentDetector)
		if !ok {
			continue
		}

		for _, file := range yamlFiles {
			candidate := Candidate{Path: file, Format: detector.Name()}
			if seen[candidate] || isSkaffoldConfig(filepath.Base(file)) {
				continue
			}

			data, err := s.filesystem.ReadFile(file)
			if err != nil {
				s.log.Trace(fmt.Sprintf("skipping unreadable %s: %v", file, err))
				continue
			}
			if content.MatchContent(data) {
				add(candidate)
			}
		}
	}
}

func isSkaffoldConfig(name string) bool {
	name = strings.ToLower(name)
	return name == "skaffold.yaml" || name == "skaffold.yml"
}

func (s *Scanner) hasDetector(name string) bool {
	for _, detector := range s.detectors {
		if detector.Name() == name {
			return true
		}
	}
	return false
}

func (s *Scanner) sort(candidates []Candidate) {
	order := make(map[string]int, len(s.detectors))
	for i, detector := range s.detectors {
		order[detector.Name()] = i
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Path != candidates[j].Path {
			return candidates[i].Path < candidates[j].Path
		}
		return order[candidates[i].Format] < order[candidates[j].Format]
	})
}
