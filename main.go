package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyreel/api"
	"storyreel/assets"
	"storyreel/config"
	"storyreel/imagegen"
	"storyreel/jobstore"
	"storyreel/kafka"
	"storyreel/media"
	"storyreel/pipeline"
	"storyreel/planner"
	"storyreel/publish"
	"storyreel/speech"
	"storyreel/state"
	"storyreel/storage"
	"storyreel/storysource"
	"storyreel/tui"
	"storyreel/types"
	"storyreel/video"
)

func main() {
	title := flag.String("title", "", "Video title")
	storyFile := flag.String("story-file", "", "Path to a UTF-8 story text file")
	storyURL := flag.String("story-url", "", "Web page to read the story from")
	out := flag.String("out", "", "Job folder (default: $OUTPUT_ROOT/<job id>)")
	serveMode := flag.Bool("serve", false, "Run the HTTP job API")
	kafkaMode := flag.Bool("kafka", false, "Consume jobs from Kafka")
	enqueue := flag.Bool("enqueue", false, "Send the job (or feed jobs) to Kafka instead of running it")
	feedURL := flag.String("feed", "", "RSS/Atom feed whose newest items become jobs")
	count := flag.Int("count", config.DefaultFeedCount, "Number of feed items to turn into jobs")
	tuiMode := flag.Bool("tui", false, "Show live progress for a CLI job")
	flag.Parse()

	log.Println("🎬 storyreel - Starting...")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		if err := runEnqueue(ctx, cfg, *title, *storyFile, *storyURL, *feedURL, *count); err != nil {
			log.Fatalf("❌ Enqueue failed: %v", err)
		}
		return
	}

	runner, err := newRunner(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize pipeline: %v", err)
	}

	switch {
	case *serveMode:
		log.Println("🌐 Running in API mode")
		err = serve(ctx, cfg, runner)
	case *kafkaMode:
		log.Println("📨 Running in KAFKA consumer mode")
		err = consume(ctx, cfg, runner)
	case *feedURL != "":
		log.Println("📰 Running in FEED mode")
		err = runFeed(ctx, runner, *feedURL, *count)
	default:
		var req types.JobRequest
		req, err = jobFromFlags(*title, *storyFile, *storyURL)
		if err == nil {
			req.Folder = *out
			err = runOne(ctx, runner, req, *tuiMode)
		}
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	p, err := planner.New(cfg.Planner)
	if err != nil {
		return nil, err
	}
	images, err := imagegen.NewOpenAI(cfg.Image)
	if err != nil {
		return nil, err
	}
	synth, err := speech.NewNLS(cfg.Speech)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Planner:  p,
		Assets:   assets.New(images, synth, cfg.Image, cfg.Speech),
		Composer: video.New(media.FFProbe{}, cfg.Media),
		Fetcher:  storysource.NewExtractor(),
	}

	if cfg.S3.Bucket != "" {
		store, err := storage.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		deps.Publishers = append(deps.Publishers, publish.NewS3(store, cfg.S3))
		log.Printf("☁️  Publishing to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	}
	if cfg.YouTube.ServiceAccountFile != "" {
		yt, err := publish.NewYouTube(ctx, cfg.YouTube)
		if err != nil {
			return nil, err
		}
		deps.Publishers = append(deps.Publishers, yt)
		log.Println("📺 Publishing to YouTube")
	}

	return pipeline.NewRunner(cfg, deps), nil
}

func newStore(ctx context.Context, cfg config.Config) (jobstore.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Println("REDIS_ADDR not set, keeping job status in memory")
		return jobstore.NewMemory(), func() {}, nil
	}
	r, err := jobstore.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { _ = r.Close() }, nil
}

func jobFromFlags(title, storyFile, storyURL string) (types.JobRequest, error) {
	req := types.JobRequest{Title: title, StoryURL: storyURL}
	if storyFile != "" {
		b, err := os.ReadFile(storyFile)
		if err != nil {
			return req, err
		}
		req.Story = string(b)
	}
	if req.Title == "" || (req.Story == "" && req.StoryURL == "") {
		return req, errors.New("usage: storyreel -title T (-story-file F | -story-url U) [-out DIR] [-tui]")
	}
	return req, nil
}

func runOne(ctx context.Context, runner *pipeline.Runner, req types.JobRequest, withTUI bool) error {
	req, err := runner.Prepare(req)
	if err != nil {
		return err
	}

	var status types.JobStatus
	if withTUI {
		// Keep the log from drawing over the TUI.
		log.SetOutput(io.Discard)
		status, err = tui.Run(ctx, req, func(ctx context.Context, obs state.Observer) (types.JobStatus, error) {
			return runner.Run(ctx, req, obs)
		})
		log.SetOutput(os.Stderr)
	} else {
		status, err = runner.Run(ctx, req)
	}
	if err != nil {
		return err
	}

	log.Printf("🎉 Done: %s", status.OutputPath)
	for _, loc := range status.Published {
		log.Printf("   published: %s", loc)
	}
	return nil
}

func runFeed(ctx context.Context, runner *pipeline.Runner, feedURL string, count int) error {
	reqs, err := feedJobs(ctx, feedURL, count)
	if err != nil {
		return err
	}

	failed := 0
	for _, req := range reqs {
		if _, err := runner.Run(ctx, req); err != nil {
			log.Printf("❌ Job %q failed: %v", req.Title, err)
			failed++
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	log.Printf("Completed %d/%d feed jobs", len(reqs)-failed, len(reqs))
	return nil
}

func feedJobs(ctx context.Context, feedURL string, count int) ([]types.JobRequest, error) {
	reqs, err := storysource.FetchFeed(ctx, http.DefaultClient, feedURL, count)
	if err != nil {
		return nil, err
	}
	log.Printf("Fetched %d feed items, extracting stories using %d workers...", len(reqs), storysource.WorkerCount)
	return storysource.Fill(ctx, storysource.NewExtractor(), reqs), nil
}

func serve(ctx context.Context, cfg config.Config, runner *pipeline.Runner) error {
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server := api.NewServer(ctx, runner, store)
	srv := &http.Server{Addr: ":" + cfg.APIPort, Handler: api.NewRouter(server)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 API Server listening on %s", srv.Addr)
	log.Println("📌 Endpoints:")
	log.Println("   POST /api/jobs      - Submit a video job")
	log.Println("   GET  /api/jobs/:id  - Job status")
	log.Println("   GET  /api/health    - Health check")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("Waiting for running jobs to stop...")
	server.Wait()
	return nil
}

func consume(ctx context.Context, cfg config.Config, runner *pipeline.Runner) error {
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Printf("🔗 Kafka Brokers: %v", cfg.Kafka.Brokers)
	log.Printf("📋 Topic: %s", cfg.Kafka.Topic)
	log.Printf("👥 Consumer Group: %s", cfg.Kafka.GroupID)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.NewJobHandler(runner, store))
	if err != nil {
		return err
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Println("🛑 Shutting down consumer...")
	return nil
}

func runEnqueue(ctx context.Context, cfg config.Config, title, storyFile, storyURL, feedURL string, count int) error {
	var reqs []types.JobRequest
	if feedURL != "" {
		var err error
		if reqs, err = feedJobs(ctx, feedURL, count); err != nil {
			return err
		}
	} else {
		req, err := jobFromFlags(title, storyFile, storyURL)
		if err != nil {
			return err
		}
		req.ID = types.GenerateID(req.Title + req.StoryURL + req.Story)
		reqs = append(reqs, req)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer producer.Close()

	for _, req := range reqs {
		if err := producer.Enqueue(req); err != nil {
			return err
		}
	}
	return nil
}
