// Package router đăng ký các route thuộc domain Consultation (tất cả sau JWT).
package router

import (
	"github.com/gofiber/fiber/v3"

	consultationhdl "smart_travel/internal/api/consultation/handler"
	"smart_travel/internal/api/middleware"
	apirouter "smart_travel/internal/api/router"
)

// Register đăng ký tất cả route consultation lên v1. Cả nhóm dùng chung JWT
// nên đăng ký một group duy nhất với middleware qua .Use() (xem cảnh báo bug
// fiber v3 trong package api/router).
func Register(v1 fiber.Router, r *apirouter.Router) error {
	handler := consultationhdl.NewConsultationHandler()

	group := v1.Group("/consultations")
	group.Use(middleware.AuthMiddleware())

	// Path rỗng để route khớp đúng prefix không có slash cuối
	// (app bật StrictRouting)
	group.Get("", handler.List)
	group.Get("/history", handler.History)
	group.Post("", handler.Upsert)
	group.Patch("/status", handler.SetStatus)
	group.Delete("/:partition/:rowIndex", handler.DeleteAt)

	return nil
}
