package container

import (
	"context"
	"fmt"
	"time"

	"dinein-backend/internal/config"
	infraCache "dinein-backend/internal/infrastructure/cache"
	"dinein-backend/internal/infrastructure/database"
	"dinein-backend/internal/infrastructure/push"
	"dinein-backend/pkg/cache"
	pkgdatabase "dinein-backend/pkg/database"
	"dinein-backend/pkg/jwt"
	"dinein-backend/pkg/logger"

	menuHandler "dinein-backend/internal/domains/menu/handler"
	menuRepo "dinein-backend/internal/domains/menu/repository"
	menuService "dinein-backend/internal/domains/menu/service"
	orderHandler "dinein-backend/internal/domains/order/handler"
	orderRepo "dinein-backend/internal/domains/order/repository"
	orderService "dinein-backend/internal/domains/order/service"
	paymentHandler "dinein-backend/internal/domains/payment/handler"
	"dinein-backend/internal/domains/payment/gateway/zalopay"
	paymentRepo "dinein-backend/internal/domains/payment/repository"
	paymentService "dinein-backend/internal/domains/payment/service"
	promotionHandler "dinein-backend/internal/domains/promotion/handler"
	promotionRepo "dinein-backend/internal/domains/promotion/repository"
	promotionService "dinein-backend/internal/domains/promotion/service"
	tableHandler "dinein-backend/internal/domains/table/handler"
	tableRepo "dinein-backend/internal/domains/table/repository"
	tableService "dinein-backend/internal/domains/table/service"
	userHandler "dinein-backend/internal/domains/user/handler"
	userRepo "dinein-backend/internal/domains/user/repository"
	userService "dinein-backend/internal/domains/user/service"
)

// Container holds the whole dependency graph. Everything in it is a
// singleton built once at startup.
type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Dispatcher *push.AsynqDispatcher

	MenuHandler           *menuHandler.MenuHandler
	UserHandler           *userHandler.UserHandler
	TableHandler          *tableHandler.TableHandler
	OrderHandler          *orderHandler.OrderHandler
	PromotionHandler      *promotionHandler.PublicHandler
	PromotionAdminHandler *promotionHandler.AdminHandler
	PaymentHandler        *paymentHandler.PaymentHandler
}

// NewContainer builds the graph bottom up: config, infrastructure,
// repositories, services, handlers. Cross-domain needs are injected as
// narrow interfaces so no domain imports another's service layer.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c.Config = cfg

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	c.DB = db

	c.Cache = infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Cache.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)

	txManager := pkgdatabase.NewPostgresTransactionManager(db.Pool)
	c.Dispatcher = push.NewAsynqDispatcher(cfg.Redis.Host)
	gateway := zalopay.NewClient(cfg.ZaloPay)

	menus := menuRepo.NewPostgresRepository(db.Pool)
	users := userRepo.NewPostgresRepository(db.Pool)
	tables := tableRepo.NewPostgresRepository(db.Pool)
	orders := orderRepo.NewPostgresRepository(db.Pool)
	promotions := promotionRepo.NewPostgresRepository(db.Pool)
	payments := paymentRepo.NewPostgresRepository(db.Pool)

	menuSvc := menuService.NewMenuService(menus)
	userSvc := userService.NewUserService(users, c.JWTManager)
	// The order repository doubles as the table domain's unpaid-tab
	// oracle, the table repository as the order domain's seating view.
	tableSvc := tableService.NewTableService(tables, orders, c.Cache, cfg.Ordering.SoftCodeTTL)
	orderSvc := orderService.NewOrderService(orders, menuSvc, tables, txManager, cfg.Ordering.DeleteGracePeriod, nil)
	promotionSvc := promotionService.NewPromotionService(promotions, users, txManager, nil)
	paymentSvc := paymentService.NewSettlementService(payments, orders, tables, promotionSvc, gateway, txManager, c.Dispatcher)

	c.MenuHandler = menuHandler.NewMenuHandler(menuSvc)
	c.UserHandler = userHandler.NewUserHandler(userSvc)
	c.TableHandler = tableHandler.NewTableHandler(tableSvc)
	c.OrderHandler = orderHandler.NewOrderHandler(orderSvc)
	c.PromotionHandler = promotionHandler.NewPublicHandler(promotionSvc)
	c.PromotionAdminHandler = promotionHandler.NewAdminHandler(promotionSvc)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(paymentSvc)

	logger.Info("container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})
	return c, nil
}

// Close releases infrastructure connections
func (c *Container) Close() {
	if c.Dispatcher != nil {
		if err := c.Dispatcher.Close(); err != nil {
			logger.Error("closing task dispatcher", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
