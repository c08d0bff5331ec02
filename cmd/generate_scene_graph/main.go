package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/config"
	"github.com/andrab0/scenegraph/pkg/scene/pipeline"
	"github.com/andrab0/scenegraph/pkg/scene/processors"
	"github.com/andrab0/scenegraph/pkg/scene/storage"
	"github.com/andrab0/scenegraph/pkg/scene/visualizer"
)

var (
	inputDir    = flag.String("input", "", "Directory containing scene descriptions (.txt, .md, .html, .pdf)")
	outputDir   = flag.String("output", "scene_graphs", "Directory for the JSON scene graphs (ignored when NEO4J_URI is set)")
	envFile     = flag.String("env", ".env", "Path to environment file")
	lang        = flag.String("lang", "en", "Language of the input documents")
	visualize   = flag.Bool("visualize", false, "Generate a D3 visualization per scene graph")
	vizDir      = flag.String("viz-output", "scene_graphs_html", "Directory for the visualizations")
	logLevel    = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	loadTimeout = flag.Duration("load-timeout", 5*time.Minute, "How long to wait for the models to load")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if *inputDir == "" {
		logger.Fatal("Input directory must be specified")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	files, err := readInputFiles(*inputDir)
	if err != nil {
		logger.Fatalf("Failed to read input directory: %v", err)
	}
	if len(files) == 0 {
		logger.Fatal("No input files found")
	}

	ctx := context.Background()
	jobs := make([]*pipeline.Job, 0, len(files))
	for _, file := range files {
		text, err := extractText(ctx, file)
		if err != nil {
			logger.Errorf("Failed to read file %s: %v", file, err)
			continue
		}
		jobs = append(jobs, &pipeline.Job{
			Source:  file,
			Request: pipeline.Request{ID: sceneID(file), Text: text, Lang: *lang},
		})
	}
	logger.Infof("Processing %d input files...", len(jobs))

	opts, indexCloser, err := cfg.CoordinatorOptions(logger)
	if err != nil {
		logger.Fatalf("Failed to configure phrase index: %v", err)
	}
	defer indexCloser.Close()

	coordinator := pipeline.New(opts...)
	coordinator.Start(ctx, cfg.Loader())

	waitCtx, cancel := context.WithTimeout(ctx, *loadTimeout)
	err = coordinator.Wait(waitCtx)
	cancel()
	if err != nil {
		logger.Fatalf("Models did not load: %v", err)
	}

	if err := coordinator.BatchProcess(ctx, jobs); err != nil {
		logger.Warnf("Some documents failed: %v", err)
	}

	store, closer, err := graphStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to configure graph store: %v", err)
	}
	defer closer.Close()

	stored := 0
	for _, job := range jobs {
		entry := logger.WithFields(logrus.Fields{"file": job.Source, "scene_id": job.Request.ID})
		if job.Err != nil {
			entry.WithError(job.Err).Error("Failed to build scene graph")
			continue
		}
		if err := store.StoreGraph(ctx, job.Request.ID, job.Graph); err != nil {
			entry.WithError(err).Error("Failed to store scene graph")
			continue
		}
		stored++
		entry.WithFields(logrus.Fields{
			"objects_count":   len(job.Graph.Objects),
			"relations_count": len(job.Graph.Relations),
		}).Info("Scene graph stored")

		if *visualize {
			path := filepath.Join(*vizDir, job.Request.ID+".html")
			if err := visualizer.NewD3Visualizer(path).Visualize(job.Graph); err != nil {
				entry.WithError(err).Error("Failed to visualize scene graph")
			}
		}
	}

	logger.Infof("Stored %d of %d scene graphs", stored, len(jobs))
}

func graphStore(cfg *config.Config) (storage.GraphStore, io.Closer, error) {
	if cfg.Neo4jURI == "" {
		cfg.StoreDir = *outputDir
	}
	return cfg.GraphStore()
}

func extractText(ctx context.Context, path string) (string, error) {
	extractor, err := processors.ExtractorFor(path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extractor.ExtractText(ctx, content)
}

// sceneID names a scene after its file, with a short random suffix so equal
// base names in different directories do not collide
func sceneID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, base)
	return base + "-" + uuid.New().String()[:8]
}

// readInputFiles lists every file under inputDir with a supported extension
func readInputFiles(inputDir string) ([]string, error) {
	var files []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if _, err := processors.ExtractorFor(path); err == nil {
				files = append(files, path)
			}
		}
		return nil
	})

	return files, err
}
