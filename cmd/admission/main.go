package main

import (
	"posada/internal/admission"
	"posada/internal/audit"
	eventshandler "posada/internal/events/handler"
	eventsrepo "posada/internal/events/repository"
	eventsservice "posada/internal/events/service"
	eventsvalidator "posada/internal/events/validator"
	groupsrepo "posada/internal/groups/repository"
	roomshandler "posada/internal/rooms/handler"
	roomsrepo "posada/internal/rooms/repository"
	roomsservice "posada/internal/rooms/service"
	roomsvalidator "posada/internal/rooms/validator"
	"posada/pkg/app"
	"posada/pkg/config"
	"posada/pkg/kafka"
	kafkaconfig "posada/pkg/kafka/config"
	kafkamiddleware "posada/pkg/kafka/middleware"
	"posada/pkg/model"
)

const ServiceName = "admission"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting reservation admission service")

	publisher, auditPublisher := initPublisher(cfg)

	groupRepo := groupsrepo.NewMongoGroupRepository(cfg)
	roomService, roomController := initRooms(cfg, groupRepo, publisher)
	eventService, eventController := initEvents(cfg, groupRepo, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.AddWorker("rooms-admission", roomController)
	serverApp.AddWorker("events-admission", eventController)
	if auditPublisher != nil {
		serverApp.AddShutdownHook("kafka-producer", func() {
			if err := auditPublisher.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
	}
	serverApp.SetApp(
		roomshandler.NewReservationHandler(roomService, cfg.Log),
		eventshandler.NewReservationHandler(eventService, cfg.Log),
	)
	serverApp.Run()
}

// initPublisher builds the decision stream when brokers are configured. The
// controllers take a nil publisher otherwise and decisions stay local.
func initPublisher(cfg *config.Config) (admission.DecisionPublisher, *audit.Publisher) {
	kafkaCfg := kafkaconfig.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka brokers not configured, decision publishing disabled")
		return nil, nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, kafkaCfg.DecisionTopic, kafkaCfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))

	auditPublisher := audit.NewPublisher(producer, cfg.Log)
	cfg.Log.Info("Decision publishing enabled",
		"topic", kafkaCfg.DecisionTopic,
		"brokers", kafkaCfg.Brokers,
	)
	return auditPublisher, auditPublisher
}

func initRooms(cfg *config.Config, groups groupsrepo.GroupRepository, publisher admission.DecisionPublisher) (roomsservice.ReservationService, *admission.Controller[model.RoomIntent]) {
	roomRepo := roomsrepo.NewMongoRoomRepository(cfg)
	reservationRepo := roomsrepo.NewMongoReservationRepository(cfg)

	controller := admission.New[model.RoomIntent](
		roomsservice.NewPolicy(),
		roomsservice.NewGateway(roomRepo, reservationRepo, groups, cfg),
		admission.Config{
			Name:          "rooms",
			BatchWindow:   cfg.BatchWindow,
			CommitTimeout: cfg.CommitTimeout,
			Publisher:     publisher,
			Log:           cfg.Log,
		},
	)

	service := roomsservice.NewReservationService(
		roomRepo,
		reservationRepo,
		controller,
		roomsvalidator.NewReservationValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Room admission initialized", "database", cfg.MongoDatabaseName)
	return service, controller
}

func initEvents(cfg *config.Config, groups groupsrepo.GroupRepository, publisher admission.DecisionPublisher) (eventsservice.ReservationService, *admission.Controller[model.EventIntent]) {
	serviceRepo := eventsrepo.NewMongoServiceRepository(cfg)
	reservationRepo := eventsrepo.NewMongoReservationRepository(cfg)

	controller := admission.New[model.EventIntent](
		eventsservice.NewPolicy(),
		eventsservice.NewGateway(reservationRepo, groups, cfg),
		admission.Config{
			Name:          "events",
			BatchWindow:   cfg.BatchWindow,
			CommitTimeout: cfg.CommitTimeout,
			Publisher:     publisher,
			Log:           cfg.Log,
		},
	)

	service := eventsservice.NewReservationService(
		serviceRepo,
		reservationRepo,
		controller,
		eventsvalidator.NewReservationValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Event admission initialized", "database", cfg.MongoDatabaseName)
	return service, controller
}
