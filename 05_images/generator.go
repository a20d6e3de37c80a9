// Package images produces one illustration per scene through a fallback
// chain: Replicate FLUX when a key is configured, the free Pollinations API
// next, and a locally rendered gradient placeholder as the floor. A
// character registry keeps recurring characters visually consistent across
// scenes.
package images

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	characters "story-video-pipeline/03_characters"
	"story-video-pipeline/config"
	"story-video-pipeline/provider"
	"story-video-pipeline/types"
)

// Generator produces scene imagery for one story at a time.
type Generator struct {
	chain    *provider.Chain
	cfg      config.ImagesConfig
	registry *characters.Registry
	imageDir string

	// refs maps character name to the path of the first image that
	// established their look, used for image-to-image continuity. Reset per
	// story.
	refs map[string]string
}

// New assembles the image provider chain. The placeholder renderer is always
// last and cannot fail, so a story never stalls on imagery.
func New(cfg config.ImagesConfig, replicateKey, imageDir string, reg *characters.Registry) *Generator {
	var entries []provider.Entry

	if replicateKey != "" {
		entries = append(entries, provider.Entry{
			Provider:    newReplicate(replicateKey, cfg),
			MinDelay:    time.Duration(cfg.ReplicateDelaySec) * time.Second,
			MaxAttempts: cfg.ReplicateRetries,
		})
	} else {
		log.Println("[images] REPLICATE_API_KEY not set — skipping Replicate")
	}

	entries = append(entries, provider.Entry{
		Provider:    newPollinations(cfg.Width, cfg.Height),
		MinDelay:    time.Second,
		MaxAttempts: 3,
	})

	entries = append(entries, provider.Entry{
		Provider:    placeholderProvider{width: cfg.Width, height: cfg.Height},
		MaxAttempts: 1,
	})

	return &Generator{
		chain:    provider.NewChain("images", entries...),
		cfg:      cfg,
		registry: reg,
		imageDir: imageDir,
		refs:     make(map[string]string),
	}
}

// GenerateStoryImages creates one JPEG per scene and returns the paths in
// scene order. Prompts are augmented with stored character descriptions so
// every scene describes the cast the same way.
func (g *Generator) GenerateStoryImages(ctx context.Context, title string, scenes []types.Scene) ([]string, error) {
	if err := os.MkdirAll(g.imageDir, 0755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	g.refs = make(map[string]string)
	paths := make([]string, 0, len(scenes))

	log.Printf("[images] Generating %d scene images...", len(scenes))
	for _, scene := range scenes {
		outFile := filepath.Join(g.imageDir, types.AssetFilename(title, scene.Index, "jpg"))

		req := provider.Request{
			Scene:   scene,
			Title:   title,
			OutPath: outFile,
			Seed:    g.seedFor(scene),
		}
		req.Scene.ImagePrompt = g.buildPrompt(scene)

		if ref := g.referenceFor(scene); ref != "" {
			req.Reference = ref
			req.Strength = g.cfg.ReferenceStrength
		}

		if _, err := g.chain.Produce(ctx, req); err != nil {
			return nil, fmt.Errorf("scene %d image: %w", scene.Index, err)
		}

		g.recordRefs(scene, outFile)
		paths = append(paths, outFile)
	}

	log.Printf("[images] ✅ %d images ready", len(paths))
	return paths, nil
}

func (g *Generator) buildPrompt(scene types.Scene) string {
	prompt := g.registry.Augment(scene.ImagePrompt, scene.Characters)
	if g.cfg.StyleSuffix != "" {
		prompt = prompt + ", " + g.cfg.StyleSuffix
	}
	return prompt
}

// seedFor keys the generation seed to the scene's lead character when one is
// known, so that character renders reproducibly; otherwise to the scene
// number.
func (g *Generator) seedFor(scene types.Scene) int {
	for _, name := range scene.Characters {
		if _, ok := g.registry.Description(name); ok {
			return g.registry.Seed(name)
		}
	}
	return scene.Index*42 + 7
}

// referenceFor picks an established character image for image-to-image
// continuity. Scene 1 always renders from scratch.
func (g *Generator) referenceFor(scene types.Scene) string {
	if !g.cfg.UseReference || scene.Index <= 1 {
		return ""
	}
	for _, name := range scene.Characters {
		if ref, ok := g.refs[name]; ok && types.ValidAsset(ref) {
			return ref
		}
	}
	return ""
}

// recordRefs remembers the first rendered image of each character.
func (g *Generator) recordRefs(scene types.Scene, outFile string) {
	for _, name := range scene.Characters {
		if _, ok := g.registry.Description(name); !ok {
			continue
		}
		if _, seen := g.refs[name]; !seen {
			g.refs[name] = outFile
		}
	}
}
