package container

import (
	"context"
	"log"
	"sync"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/services"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer manages dependency injection for all services
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// base services
	jwtService          services.InterfaceJWTService
	redisService        services.InterfaceRedisService
	notificationService services.InterfaceNotificationService

	// business services
	adminService       services.InterfaceAdminService
	areaService        services.InterfaceAreaService
	operatorService    services.InterfaceOperatorService
	bookingService     services.InterfaceBookingService
	taskService        services.InterfaceTaskService
	assignmentService  services.InterfaceAssignmentService
	historyService     services.InterfaceHistoryService
	taskManagerService services.InterfaceTaskManagerService

	// door access services
	lockProfileService services.InterfaceLockProfileService
	lockAccessService  services.InterfaceLockAccessService

	mu sync.RWMutex
}

// NewServiceContainer creates the service container
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("database connection is nil")
	}
	if cfg == nil {
		panic("configuration is nil")
	}

	// probe the Redis connection so a broken cache is visible at startup
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis connection test failed: %v, continuing without cache", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices wires all services
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// base services
	c.jwtService = services.NewJWTService(c.config)
	c.redisService = services.NewRedisService(c.config)
	c.notificationService = services.NewNotificationService(c.config)

	// MQTT is best effort: notifications degrade to log lines when the
	// broker is unreachable
	if err := c.notificationService.Connect(); err != nil {
		log.Printf("MQTT connection failed: %v", err)
	}

	// business services
	c.adminService = services.NewAdminService(c.db, c.config)
	c.areaService = services.NewAreaService(c.db, c.config)
	c.operatorService = services.NewOperatorService(c.db, c.config)
	c.bookingService = services.NewBookingService(c.db, c.config)
	c.taskService = services.NewTaskService(c.db, c.config)
	c.historyService = services.NewHistoryService(c.db, c.config)
	c.assignmentService = services.NewAssignmentService(c.db, c.config, c.taskService, c.operatorService, c.areaService)
	c.taskManagerService = services.NewTaskManagerService(c.db, c.config, c.areaService, c.historyService, &services.DriverDeps{
		Config:     c.config,
		Tasks:      c.taskService,
		Assignment: c.assignmentService,
		Notifier:   c.notificationService,
	})

	// door access services
	c.lockProfileService = services.NewLockProfileService(c.db, c.config)
	c.lockAccessService = services.NewLockAccessService(c.config, c.historyService)
}

// GetService returns the service registered under the given name
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "notification":
		return c.notificationService
	case "admin":
		return c.adminService
	case "area":
		return c.areaService
	case "operator":
		return c.operatorService
	case "booking":
		return c.bookingService
	case "task":
		return c.taskService
	case "assignment":
		return c.assignmentService
	case "history":
		return c.historyService
	case "task_manager":
		return c.taskManagerService
	case "lock_profile":
		return c.lockProfileService
	case "lock_access":
		return c.lockAccessService
	default:
		return nil
	}
}

// GetDB returns the database connection
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
