package routers

import (
	"github.com/GrainArc/GeoObjectServer/services"
	"github.com/GrainArc/GeoObjectServer/views"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func GeoRouters(r *gin.Engine, db *gorm.DB) {
	objectService := services.NewGeoObjectService(db)
	geoHandler := views.NewGeoObjectHandler(objectService)
	editorHandler := views.NewEditorHandler(objectService, services.NewEditSessionService(db))

	objectRouter := r.Group("/geoobjects")
	{
		objectRouter.GET("", geoHandler.List)
		objectRouter.GET("/geojson", geoHandler.GeoJSON)
		objectRouter.GET("/byname", geoHandler.GetByName)
		objectRouter.POST("", geoHandler.Add)
		objectRouter.PUT("", geoHandler.Update)         // 整体更新，调和拓扑连接
		objectRouter.PATCH("", geoHandler.UpdateScalar) // 只更新标量字段
		objectRouter.POST("/reset", geoHandler.ClearTrackedState)
		objectRouter.GET("/:id", geoHandler.Get)
		objectRouter.DELETE("/:id", geoHandler.Delete)
		objectRouter.GET("/:id/records", geoHandler.Records)
		objectRouter.GET("/:id/aspects", geoHandler.ListAspects)
		objectRouter.POST("/:id/aspects/:aspectId", geoHandler.AttachAspect)
	}
	aspectRouter := r.Group("/aspects")
	{
		aspectRouter.POST("", geoHandler.AddAspect)
	}
	classifierRouter := r.Group("/classifiers")
	{
		classifierRouter.POST("", geoHandler.AddClassifier)
		classifierRouter.GET("", geoHandler.ListClassifiers)
		classifierRouter.GET("/associations", geoHandler.ListAllAssociations)
		classifierRouter.GET("/:id", geoHandler.GetClassifier)
	}
	infoRouter := r.Group("/geoobjectinfo")
	{
		infoRouter.GET("/:id/classifiers", geoHandler.ListInfoAssociations)
		infoRouter.POST("/:id/classifiers", geoHandler.AddInfoAssociation)
	}
	editorRouter := r.Group("/editor")
	{
		editorRouter.GET("/ws", editorHandler.Socket)
	}
}

// NewEngine 创建带日志和恢复中间件的引擎
func NewEngine(db *gorm.DB, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)
	GeoRouters(r, db)
	return r
}
