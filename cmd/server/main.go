package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tempora_back_end/internal/blob"
	"tempora_back_end/internal/bot"
	"tempora_back_end/internal/chat"
	"tempora_back_end/internal/config"
	"tempora_back_end/internal/database"
	"tempora_back_end/internal/handlers"
	"tempora_back_end/internal/notify"
	"tempora_back_end/internal/routes"
	"tempora_back_end/internal/session"
	"tempora_back_end/internal/shop"
	"tempora_back_end/internal/store"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	sweepInterval      = 5 * time.Minute
)

func main() {
	config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := config.Env("STORE_BACKEND", "scylla")
	useRedis := backend == "scylla"

	// --- Stockage ---
	var (
		products   shop.ProductStore
		categories shop.CategoryStore
		users      shop.UserStore
		orders     shop.OrderStore
		proofs     shop.ProofStore
		blobs      blob.Store
	)

	switch backend {
	case "memory":
		log.Println("⚠️  Profil mémoire : aucune donnée ne sera persistée")
		mem := store.NewMemory()
		products, categories, users, orders, proofs = mem, mem, mem, mem, mem
		blobs = blob.NewMemoryStore()
	case "scylla":
		database.ConnectDatabases()
		defer database.CloseScylla()
		defer database.CloseRedis()

		productsSession, err := database.GetProductsSession()
		if err != nil {
			log.Fatalf("❌ Session catalogue: %v", err)
		}
		ordersSession, err := database.GetOrdersSession()
		if err != nil {
			log.Fatalf("❌ Session commandes: %v", err)
		}
		usersSession, err := database.GetUsersSession()
		if err != nil {
			log.Fatalf("❌ Session utilisateurs: %v", err)
		}
		sc := store.NewScylla(productsSession, ordersSession, usersSession)
		products, categories, users, orders, proofs = sc, sc, sc, sc, sc

		blobs, err = blob.ConnectMinio(ctx)
		if err != nil {
			log.Fatalf("❌ Connexion MinIO: %v", err)
		}
	default:
		log.Fatalf("❌ STORE_BACKEND inconnu : %s", backend)
	}

	// --- Domaine ---
	adminIDs := os.Getenv("ADMIN_IDS")
	oracle := shop.NewAdminOracle(users, adminIDs)
	carts := shop.NewCartService(products)
	inventory := shop.NewInventoryAdjuster(products)
	catalog := shop.NewCatalogService(products, categories)
	stats := shop.NewStatsService(orders)

	// --- Chat et notifications ---
	customerGateway := chat.NewGateway(blobs)
	adminGateway := chat.NewGateway(blobs)
	notifier := notify.NewNotifier(customerGateway, adminGateway, users, adminIDs)

	var events shop.EventPublisher
	if useRedis {
		broker := notify.NewRedisBroker(database.Redis)
		broker.StartConsumer(ctx, notifier)
		events = broker
	} else {
		events = notify.NewDirectBroker(notifier)
	}

	orderSvc := shop.NewOrderService(orders, proofs, products, inventory, oracle, events)

	// --- Bots ---
	merchant := bot.Merchant{
		Name:           config.Env("MERCHANT_NAME", "Tempora"),
		PaymentDetails: config.Env("MERCHANT_PAYMENT_DETAILS", "IBAN non configuré"),
	}

	customerSessions := session.NewStore(bot.NewCustomerSession, sessionIdleTimeout)
	customerSessions.StartSweeper(ctx, sweepInterval)
	adminSessions := session.NewStore(bot.NewAdminSession, sessionIdleTimeout)
	adminSessions.StartSweeper(ctx, sweepInterval)

	customerBot := bot.NewCustomerBot(customerGateway, blobs, products, categories,
		carts, orderSvc, oracle, customerSessions, merchant)
	adminBot := bot.NewAdminBot(adminGateway, categories, catalog, orderSvc, stats,
		oracle, adminSessions)

	customerGateway.SetHandler(customerBot)
	adminGateway.SetHandler(adminBot)

	// --- HTTP ---
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(config.Env("CORS_ORIGINS", "http://localhost:3000"), ",")
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	h := &handlers.Handlers{
		Orders:     orderSvc,
		Catalog:    catalog,
		Stats:      stats,
		Products:   products,
		Categories: categories,
		Users:      users,
		Oracle:     oracle,
		Blobs:      blobs,
	}
	routes.RegisterRoutes(r, h, customerGateway, adminGateway, useRedis)

	port := config.Env("PORT", "8080")
	log.Println("🚀 Serveur Tempora lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Serveur arrêté: %v", err)
	}
}
