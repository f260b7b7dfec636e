package router

import (
	"context"
	"time"

	"gmrstock/internal/config"
	"gmrstock/internal/docstore"
	"gmrstock/internal/handler"
	"gmrstock/internal/infra"
	"gmrstock/internal/metrics"
	"gmrstock/internal/middleware"
	"gmrstock/internal/repository"
	"gmrstock/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← Store/Redis
// rdb may be nil; the store sequence and log-only incidents are used then.
func New(
	ctx context.Context,
	cfg *config.Config,
	store docstore.Store,
	rdb *redis.Client,
	cb *infra.CircuitBreaker,
	m *metrics.Metrics,
	notif service.Notificador,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	limiter.StartPurge(ctx)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(limiter.Middleware())

	// ── Repositories ─────────────────────────────────────────────────────────
	loteRepo := repository.NewLoteRepository(store)
	comandaRepo := repository.NewComandaRepository(store)
	ventaRepo := repository.NewVentaRepository(store)
	devolucionRepo := repository.NewDevolucionRepository(store)
	reprocesoRepo := repository.NewReprocesoRepository(store)
	contadorRepo := repository.NewContadorRepository(store)

	// ── Services ─────────────────────────────────────────────────────────────
	var secuencia service.Secuencia
	if cfg.SecuenciaBackend == config.SecuenciaRedis && rdb != nil {
		secuencia = service.NewRedisSecuencia(rdb, m)
	} else {
		secuencia = service.NewStoreSecuencia(contadorRepo, m)
	}

	loteSvc := service.NewLoteService(loteRepo, m, notif)
	reservaSvc := service.NewReservaService(comandaRepo, loteSvc, secuencia, m, notif)
	ventaSvc := service.NewVentaService(loteSvc, ventaRepo, comandaRepo, m, notif)
	devolucionSvc := service.NewDevolucionService(loteSvc, ventaRepo, devolucionRepo, m, notif)
	trazaSvc := service.NewTrazaService(loteRepo, ventaRepo, reprocesoRepo, devolucionRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	lotesH := handler.NewLotesHandler(loteSvc, devolucionSvc, trazaSvc)
	comandasH := handler.NewComandasHandler(reservaSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	devolucionesH := handler.NewDevolucionesHandler(devolucionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(store, rdb, cb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		lotes := v1.Group("/lotes")
		{
			lotes.POST("", lotesH.Crear)
			lotes.GET("", lotesH.Listar)
			lotes.GET("/:numero", lotesH.Obtener)
			lotes.PATCH("/:numero/observacion", lotesH.ActualizarObservacion)
			lotes.PUT("/:numero/reserva", lotesH.ActualizarReserva)
			lotes.POST("/:numero/archivar", lotesH.Archivar)
			lotes.GET("/:numero/traza", lotesH.Traza)
			lotes.GET("/:numero/devolvibles", lotesH.Devolvibles)
		}

		comandas := v1.Group("/comandas")
		{
			comandas.POST("", comandasH.Crear)
			comandas.GET("", comandasH.Listar)
			comandas.GET("/:id", comandasH.Obtener)
			comandas.GET("/:id/candidatos", comandasH.Candidatos)
			comandas.POST("/:id/asignar", comandasH.Asignar)
			comandas.POST("/:id/desasignar", comandasH.Desasignar)
			comandas.PATCH("/:id/fecha", comandasH.Reprogramar)
			comandas.POST("/:id/vendida", comandasH.MarcarVendida)
			comandas.DELETE("/:id", comandasH.Eliminar)
		}

		v1.POST("/ventas", ventasH.RegistrarVenta)
		v1.POST("/devoluciones", devolucionesH.RegistrarDevolucion)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
