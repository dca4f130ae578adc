package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkago "github.com/segmentio/kafka-go"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/pedidos-live/docs"
	"github.com/MikeMC777/pedidos-live/internal/config"
	"github.com/MikeMC777/pedidos-live/internal/httpx"
	"github.com/MikeMC777/pedidos-live/internal/menu"
	"github.com/MikeMC777/pedidos-live/internal/order"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

// @title        Pedidos Live API
// @version      1.0
// @description  Pedidos y menús del marketplace local, con push de eventos.
// @BasePath     /api

func newRouter(orders order.Repository, menus menu.Repository, hub *Hub, nf *notifier, policy status.CancelPolicy) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	api.GET("/orders/business/:businessID", listOrdersByBusinessHandler(orders))
	api.GET("/orders/user/:userID", listOrdersByUserHandler(orders))
	api.POST("/orders", createOrderHandler(orders, nf))
	api.PATCH("/orders/:id/status", updateOrderStatusHandler(orders, nf, policy))
	api.GET("/orders/stream", streamHandler(hub))

	api.GET("/menu/business/:businessID", listMenuHandler(menus))
	api.POST("/menu/business/:businessID", createMenuItemHandler(menus))
	api.PUT("/menu/:id", updateMenuItemHandler(menus))
	api.DELETE("/menu/:id", deleteMenuItemHandler(menus))

	return r
}

func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[orders-api] postgres: %v", err)
	}
	defer pool.Close()

	hub := newHub()
	nf := &notifier{hub: hub}
	if len(cfg.KafkaBrokers) > 0 {
		nf.kafka = &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
		}
		defer nf.kafka.Close()
		log.Printf("[orders-api] publishing events to kafka topic %s", cfg.KafkaTopic)
	}

	r := newRouter(order.NewPGRepo(pool), menu.NewPGRepo(pool), hub, nf,
		status.ParseCancelPolicy(cfg.CancelPolicy))
	r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	log.Printf("orders-api listening on %s", cfg.OrdersAPIAddr)
	log.Fatal(r.Run(cfg.OrdersAPIAddr))
}
