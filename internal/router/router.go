package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"

	"TripMate/config"
	"TripMate/internal/handler"
	"TripMate/internal/middleware"
)

func Register(r *route.Engine) {
	r.Use(middleware.RecoverMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.OpenTelemetryMiddleware())

	var write, search app.HandlerFunc = passthrough, passthrough
	if config.Cfg.RateLimitEnabled {
		write = middleware.WriteRateLimitMiddleware()
		search = middleware.SearchRateLimitMiddleware()
	}

	v1 := r.Group("/v1", middleware.ParticipantMiddleware())

	v1.POST("/trips", write, handler.CreateTrip)
	v1.GET("/places/search", search, handler.SearchPlaces)

	trip := v1.Group("/trips/:trip_id")
	{
		trip.GET("", handler.GetTrip)
		trip.POST("/participants", write, handler.AddParticipant)
		trip.GET("/days/:day/map", handler.GetDayMap)
		trip.GET("/links/:entry_id/name", handler.GetLinkedName)
	}

	// 日程条目
	itinerary := trip.Group("/itinerary")
	{
		itinerary.GET("", handler.ListItinerary)
		itinerary.POST("", write, handler.CreateEntry)
		itinerary.PATCH("/:entry_id", write, handler.UpdateEntry)
		itinerary.DELETE("/:entry_id", write, handler.DeleteEntry)
		itinerary.PUT("/:entry_id/check", write, handler.ToggleEntryCheck)
		itinerary.POST("/:entry_id/image", write, handler.UploadEntryImage)
		itinerary.PATCH("/:entry_id/image", write, handler.AdjustEntryImage)
		itinerary.DELETE("/:entry_id/image", write, handler.RemoveEntryImage)
	}

	tickets := trip.Group("/tickets")
	{
		tickets.GET("", handler.ListTickets)
		tickets.POST("", write, handler.CreateTicket)
		tickets.PATCH("/:ticket_id", write, handler.UpdateTicket)
		tickets.DELETE("/:ticket_id", write, handler.DeleteTicket)
		tickets.PUT("/:ticket_id/registrations/:key", write, handler.RegisterTicket)
		tickets.DELETE("/:ticket_id/registrations/:key", write, handler.UnregisterTicket)
	}

	preparations := trip.Group("/preparations")
	{
		preparations.GET("", handler.ListPreparations)
		preparations.POST("", write, handler.CreatePreparation)
		preparations.PATCH("/:prep_id", write, handler.UpdatePreparation)
		preparations.DELETE("/:prep_id", write, handler.DeletePreparation)
		preparations.PUT("/:prep_id/check", write, handler.CheckPreparation)
	}

	expenses := trip.Group("/expenses")
	{
		expenses.GET("", handler.ListExpenses)
		expenses.GET("/summary", handler.GetExpenseSummary)
		expenses.POST("", write, handler.CreateExpense)
		expenses.PATCH("/:expense_id", write, handler.UpdateExpense)
		expenses.DELETE("/:expense_id", write, handler.DeleteExpense)
	}

	infos := trip.Group("/infos")
	{
		infos.GET("", handler.ListInfos)
		infos.POST("", write, handler.CreateInfo)
		infos.PATCH("/:info_id", write, handler.UpdateInfo)
		infos.DELETE("/:info_id", write, handler.DeleteInfo)
	}

	notices := trip.Group("/notices")
	{
		notices.GET("", handler.ListNotices)
		notices.POST("", write, handler.CreateNotice)
		notices.DELETE("/:notice_id", write, handler.DeleteNotice)
	}
}

func passthrough(ctx context.Context, c *app.RequestContext) {
	c.Next(ctx)
}
