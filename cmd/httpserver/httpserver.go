// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/m-koval/bank-ledger/internal/accountdelivery"
	"github.com/m-koval/bank-ledger/internal/accountrepo"
	"github.com/m-koval/bank-ledger/internal/accountservice"
	"github.com/m-koval/bank-ledger/internal/middleware"
	"github.com/m-koval/bank-ledger/internal/sessiondelivery"
	"github.com/m-koval/bank-ledger/internal/sessionrepo"
	"github.com/m-koval/bank-ledger/internal/sessionservice"
	"github.com/m-koval/bank-ledger/internal/transferdelivery"
	"github.com/m-koval/bank-ledger/internal/transferevents"
	"github.com/m-koval/bank-ledger/internal/transferrepo"
	"github.com/m-koval/bank-ledger/internal/transferservice"
	"github.com/m-koval/bank-ledger/internal/userdelivery"
	"github.com/m-koval/bank-ledger/internal/userrepo"
	"github.com/m-koval/bank-ledger/internal/userservice"
	"github.com/m-koval/bank-ledger/pkg/configpkg"
	"github.com/m-koval/bank-ledger/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	var publisher transferservice.EventPublisher = transferevents.NopPublisher{}
	if brokers := config.BrokerList(); brokers != nil {
		publisher = transferevents.NewPublisher(brokers)
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo)
	transferService := transferservice.New(transferRepo, accountService, publisher)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	transferHandler := transferdelivery.NewHandler(transferService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)
	engine.GET("/health", healthHandler(conn))

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.GET("/accounts", accountHandler.Search)
	authRoutes.PATCH("/accounts/:id", accountHandler.Update)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)

	authRoutes.POST("/transfers", transferHandler.Create)
	authRoutes.GET("/accounts/:id/transfers", transferHandler.History)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

func healthHandler(conn *sql.DB) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		res := healthResponse{
			Status:   "UP",
			Database: "UP",
			Time:     time.Now(),
		}

		status := http.StatusOK

		if err := conn.PingContext(gctx.Request.Context()); err != nil {
			res.Status = "DEGRADED"
			res.Database = "DOWN"
			status = http.StatusServiceUnavailable
		}

		gctx.JSON(status, res)
	}
}
