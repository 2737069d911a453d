package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/scratchpool/ticket-api/docs"
	v1 "github.com/scratchpool/ticket-api/internal/api/handler/v1"
	"github.com/scratchpool/ticket-api/internal/api/middleware"
	"github.com/scratchpool/ticket-api/internal/config"
	"github.com/scratchpool/ticket-api/internal/repository"
	"github.com/scratchpool/ticket-api/internal/repository/dao"
	"github.com/scratchpool/ticket-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB, queue service.JobQueue) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	ticketHandler := s.initTicketHandler(db, queue)
	s.MountHandlers(ticketHandler)

	return s
}

func (s *Server) initTicketHandler(db *gorm.DB, queue service.JobQueue) *v1.TicketHandler {
	purchaseRepo := repository.NewPurchaseRepository(dao.NewPurchaseDAO(db))
	resultRepo := repository.NewResultRepository(dao.NewResultDAO(db))
	svc := service.NewPurchaseService(purchaseRepo, resultRepo, queue, func() service.PurchaseSettings {
		draw := s.Config.DrawSettings()

		return service.PurchaseSettings{
			UnitPrice:       decimal.NewFromFloat(draw.UnitPrice),
			MinQuantity:     draw.MinQuantity,
			MaxQuantity:     draw.MaxQuantity,
			DefaultPageSize: draw.DefaultPageSize,
		}
	})
	handler := v1.NewTicketHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(ticketHandler *v1.TicketHandler) {
	const basePath = "/api/v1"

	tickets := s.Router.Group(basePath)
	{
		tickets.POST("/tickets/purchase", ticketHandler.HandlePurchase)
		tickets.GET("/tickets/status/:purchaseID", ticketHandler.HandleStatus)
		tickets.GET("/tickets/latest-purchase", ticketHandler.HandleLatestPurchase)
		tickets.GET("/tickets/all/:purchaseID", ticketHandler.HandleAllTickets)
		tickets.GET("/tickets/all-user-tickets", ticketHandler.HandleAllOwnerTickets)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Scratch Ticket API"
	docs.SwaggerInfo.Description = "Ticket purchase fulfillment and pool replenishment."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
