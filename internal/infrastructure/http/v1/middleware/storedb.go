package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/store"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
)

const (
	// StoreHeader is the HTTP header for store identification.
	StoreHeader = "X-Store-ID"
)

// StoreDB middleware resolves the store from header and injects its database
// pool into context. This middleware MUST run before any database operations.
//
// Flow:
// 1. Extract store UUID from X-Store-ID header
// 2. Get pool from store Manager
// 3. Create TxManager for this request
// 4. Inject pool, TxManager, and Store into context
func StoreDB(manager *store.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// 1. Extract store UUID from header
		rawStoreID := c.GetHeader(StoreHeader)
		if rawStoreID == "" {
			_ = c.Error(
				apperror.NewValidation("store is required").
					WithDetail("header", StoreHeader),
			)
			c.Abort()
			return
		}

		storeUUID, err := uuid.Parse(rawStoreID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid store id").
					WithDetail("header", StoreHeader).
					WithDetail("value", rawStoreID),
			)
			c.Abort()
			return
		}
		storeID := storeUUID.String()

		// 2. Get pool from manager
		managedPool, err := manager.GetPool(ctx, storeID)
		if err != nil {
			logger.Warn(ctx, "store pool error", "store_id", storeID, "error", err)

			switch {
			case errors.Is(err, store.ErrStoreNotFound):
				_ = c.Error(apperror.NewNotFound("store", storeID))
			case errors.Is(err, store.ErrStoreNotActive):
				_ = c.Error(apperror.NewForbidden("store is not active").WithDetail("store_id", storeID))
			case errors.Is(err, store.ErrMaxPoolLimit):
				appErr := apperror.NewInternal(err)
				appErr.HTTPStatus = http.StatusServiceUnavailable
				appErr.Message = "service temporarily unavailable"
				_ = c.Error(appErr.WithDetail("store_id", storeID))
			default:
				_ = c.Error(apperror.NewInternal(err).WithDetail("store_id", storeID))
			}
			c.Abort()
			return
		}

		// Track active request for graceful shutdown
		managedPool.AcquireRef()
		defer managedPool.ReleaseRef()

		// 3. Create TxManager for this request
		txManager := postgres.NewTxManagerFromRawPool(managedPool.Pool())

		// 4. Inject into context
		ctx = store.WithPool(ctx, managedPool.Pool())
		ctx = store.WithTxManager(ctx, txManager)
		ctx = store.WithStore(ctx, managedPool.Store())

		c.Request = c.Request.WithContext(ctx)

		// Also set in Gin context for handlers that use c.Get()
		c.Set("store_id", managedPool.Store().ID)
		c.Set("tx_manager", txManager)

		c.Next()
	}
}

// GetTxManagerFromContext retrieves TxManager from Gin context.
// Returns nil if not found. Use this in handlers.
func GetTxManagerFromContext(c *gin.Context) *postgres.TxManager {
	if v, exists := c.Get("tx_manager"); exists {
		if txm, ok := v.(*postgres.TxManager); ok {
			return txm
		}
	}
	return nil
}
