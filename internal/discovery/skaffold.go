package discovery

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/GoogleContainerTools/skaffold/pkg/skaffold/schema/latest"
	"gopkg.in/yaml.v3"
)

// skaffoldManifests returns the entries of yamlFiles named by the kubectl
// manifests globs of the skaffold config at configPath, including those of
// its profiles. Broken configs yield nothing.
func (s *Scanner) skaffoldManifests(configPath string, yamlFiles []string) []string {
	config, err := s.parseSkaffoldConfig(configPath)
	if err != nil {
		s.log.Debug(fmt.Sprintf("skipping skaffold config %s: %v", configPath, err))
		return nil
	}

	globs := kubectlManifests(config.Pipeline)
	for _, profile := range config.Profiles {
		globs = append(globs, kubectlManifests(profile.Pipeline)...)
	}
	if len(globs) == 0 {
		return nil
	}

	configDir := s.filesystem.Dir(configPath)
	var manifests []string
	for _, file := range yamlFiles {
		rel, err := s.filesystem.Rel(configDir, file)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, glob := range globs {
			if matchManifestGlob(glob, rel) {
				manifests = append(manifests, file)
				break
			}
		}
	}
	return manifests
}

func (s *Scanner) parseSkaffoldConfig(configPath string) (*latest.SkaffoldConfig, error) {
	content, err := s.filesystem.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var config latest.SkaffoldConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func kubectlManifests(pipeline latest.Pipeline) []string {
	if pipeline.Deploy.KubectlDeploy == nil {
		return nil
	}
	return pipeline.Deploy.KubectlDeploy.Manifests
}

// matchManifestGlob matches a skaffold manifest glob against a path relative
// to the skaffold config. A trailing "/**" or "/**/*.yaml" style suffix
// matches at any depth below the prefix.
func matchManifestGlob(glob, rel string) bool {
	glob = strings.TrimPrefix(path.Clean(filepath.ToSlash(glob)), "./")

	if prefix, suffix, ok := strings.Cut(glob, "**"); ok {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix != "" && !strings.HasPrefix(rel, prefix+"/") {
			return false
		}
		suffix = strings.TrimPrefix(suffix, "/")
		if suffix == "" {
			return true
		}
		matched, err := path.Match(suffix, path.Base(rel))
		return err == nil && matched
	}

	matched, err := path.Match(glob, rel)
	return err == nil && matched
}
