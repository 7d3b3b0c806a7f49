package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roomloghq/roomlog/internal/config"
	eventlogdomain "github.com/roomloghq/roomlog/internal/eventlog/domain"
	historydomain "github.com/roomloghq/roomlog/internal/history/domain"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(log.Named("http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Params struct {
	fx.In

	Engine         *gin.Engine
	Config         config.Config
	Log            *zap.Logger
	EventlogSvc    eventlogdomain.Service
	MeetingSvc     meetingdomain.Service
	ParticipantSvc participantdomain.Service
	TranscriptSvc  transcriptdomain.Service
	HistorySvc     historydomain.Service
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	eventlogSvc    eventlogdomain.Service
	meetingSvc     meetingdomain.Service
	participantSvc participantdomain.Service
	transcriptSvc  transcriptdomain.Service
	historySvc     historydomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		engine:         p.Engine,
		cfg:            p.Config,
		log:            p.Log.Named("server"),
		eventlogSvc:    p.EventlogSvc,
		meetingSvc:     p.MeetingSvc,
		participantSvc: p.ParticipantSvc,
		transcriptSvc:  p.TranscriptSvc,
		historySvc:     p.HistorySvc,
	}
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/events", s.ingestEvents)
	v1.GET("/events", s.listEvents)
	v1.POST("/events/:id/retry", s.retryEvent)

	v1.GET("/meetings", s.listActiveMeetings)
	v1.GET("/meetings/:id", s.getMeeting)
	v1.GET("/meetings/:id/participants", s.listParticipants)
	v1.GET("/meetings/:id/transcript", s.getTranscript)
	v1.GET("/rooms/:room/meeting", s.getMeetingByRoom)

	v1.GET("/users/:id/history", s.getHistory)
	v1.GET("/users/:id/history/stats", s.getHistoryStats)
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
