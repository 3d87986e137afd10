package bootstrap

import (
	"log"

	"ai-coparenting-be/internal/config"
	"ai-coparenting-be/internal/controller"
	"ai-coparenting-be/internal/pkg/logger"
	"ai-coparenting-be/internal/pkg/mailer"
	"ai-coparenting-be/internal/repository/memory"
	"ai-coparenting-be/internal/repository/unitofwork"
	"ai-coparenting-be/internal/service"
	"ai-coparenting-be/pkg/llm/factory"
	"ai-coparenting-be/pkg/publish"
	"ai-coparenting-be/pkg/quest"
	"ai-coparenting-be/pkg/safety/classifier"
	"ai-coparenting-be/pkg/safety/detector"
	"ai-coparenting-be/pkg/safety/pipeline"
	"ai-coparenting-be/pkg/safety/reviewer"
	"ai-coparenting-be/pkg/style"
	"ai-coparenting-be/pkg/transcribe"
	"ai-coparenting-be/pkg/workflow"

	pktNats "ai-coparenting-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthoringController controller.IAuthoringController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS (optional: the app runs without it, downstream events are lost)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. AI Collaborators
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Safety Pipeline
	// The detector always runs; classifier and reviewer degrade to no-ops
	// when their backends are not configured or fail mid-turn.
	safetyDetector := detector.NewDetector()
	safetyClassifier := classifier.NewClassifier(
		cfg.Safety.ClassifierBaseURL,
		cfg.Safety.ClassifierAPIKey,
		cfg.Safety.ClassifierModel,
	)
	safetyReviewer := reviewer.NewReviewer(llmProvider, log.Default())
	safetyPipeline := pipeline.NewPipeline(safetyDetector, safetyClassifier, safetyReviewer, log.Default())

	// 5. Authoring Collaborators
	stylist := style.NewAnalyzer()
	questGenerator := quest.NewGenerator(llmProvider, log.Default())
	pagePublisher := publish.NewTelegraphPublisher(cfg.Publish.TelegraphBaseURL, cfg.Publish.AuthorName)
	whisper := transcribe.NewWhisperTranscriber(cfg.Transcribe.WhisperBaseURL, cfg.Transcribe.WhisperModel)

	// In-memory session storage
	sessionRepo := memory.NewSessionRepository()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.ArtifactTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.ArtifactTopic,
		uowFactory,
		emailService,
		natsPub,
	)

	authoringService := service.NewAuthoringService(
		uowFactory,
		publisherService,
		pagePublisher,
		whisper,
		sysLogger,
	)

	engine := workflow.NewEngine(
		sessionRepo,
		safetyPipeline,
		questGenerator,
		llmProvider,
		stylist,
		authoringService, // Finalizer
		log.Default(),
	)
	authoringService.SetEngine(engine)

	// 7. Controllers
	return &Container{
		AuthoringController: controller.NewAuthoringController(authoringService),

		ConsumerService: consumerService,
	}
}
