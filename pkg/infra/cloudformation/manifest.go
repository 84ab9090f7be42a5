package cloudformation

import (
	"fmt"
	"path/filepath"

	"github.com/klothoplatform/spa-stack/pkg/stack"
)

const (
	assemblyVersion     = "36.0.0"
	currentDestination  = "current_account-current_region"
	artifactTypeStack   = "aws:cloudformation:stack"
	artifactTypeAssets  = "cdk:asset-manifest"
	unknownAccount      = "unknown-account"
	unknownRegion       = "unknown-region"
	templateAssetSuffix = ".assets"
)

type (
	// AssetManifest tells the asset publisher which local files to upload and where.
	AssetManifest struct {
		Version string                `json:"version"`
		Files   map[string]AssetEntry `json:"files"`
	}

	AssetEntry struct {
		Source       AssetSource                 `json:"source"`
		Destinations map[string]AssetDestination `json:"destinations"`
	}

	AssetSource struct {
		Path      string `json:"path"`
		Packaging string `json:"packaging"`
	}

	AssetDestination struct {
		BucketName string `json:"bucketName"`
		ObjectKey  string `json:"objectKey"`
	}

	CloudAssembly struct {
		Version   string              `json:"version"`
		Artifacts map[string]Artifact `json:"artifacts"`
	}

	Artifact struct {
		Type         string            `json:"type"`
		Environment  string            `json:"environment,omitempty"`
		Properties   map[string]string `json:"properties,omitempty"`
		Dependencies []string          `json:"dependencies,omitempty"`
	}
)

func newAssetManifest() AssetManifest {
	return AssetManifest{Version: assemblyVersion, Files: make(map[string]AssetEntry)}
}

func (m AssetManifest) add(hash string, source AssetSource, key, bucket string) {
	m.Files[hash] = AssetEntry{
		Source: source,
		Destinations: map[string]AssetDestination{
			currentDestination: {BucketName: bucket, ObjectKey: key},
		},
	}
}

// addAsset adds a staged asset. Directory assets reference their absolute path since they are not copied into
// the assembly.
func (m AssetManifest) addAsset(a stack.Asset, bucket string) {
	path := a.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	key := a.Hash
	if a.Packaging == stack.PackagingZip {
		key += ".zip"
	}
	m.add(a.Hash, AssetSource{Path: path, Packaging: a.Packaging}, key, bucket)
}

// addTemplate adds a nested template, which lives in the assembly next to the manifest.
func (m AssetManifest) addTemplate(hash, file, key, bucket string) {
	m.add(hash, AssetSource{Path: file, Packaging: stack.PackagingFile}, key, bucket)
}

func (p Plugin) environment() string {
	account, region := p.Config.Account, p.Config.Region
	if account == "" {
		account = unknownAccount
	}
	if region == "" {
		region = unknownRegion
	}
	return fmt.Sprintf("aws://%s/%s", account, region)
}

func (p Plugin) cloudAssemblyManifest(app string) CloudAssembly {
	assets := app + templateAssetSuffix
	return CloudAssembly{
		Version: assemblyVersion,
		Artifacts: map[string]Artifact{
			assets: {
				Type:       artifactTypeAssets,
				Properties: map[string]string{"file": p.AssetManifestFile(app)},
			},
			app: {
				Type:         artifactTypeStack,
				Environment:  p.environment(),
				Properties:   map[string]string{"templateFile": p.TemplateFile(app)},
				Dependencies: []string{assets},
			},
		},
	}
}
