package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TripMate/internal/model/dto"
	"TripMate/internal/service"
	"TripMate/pkg/response"
)

// ========== Tickets ==========

// ListTickets 票种及徽标
// GET /v1/trips/:trip_id/tickets
func ListTickets(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	tickets, err := service.Tickets().List(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, tickets)
}

func CreateTicket(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.TicketRequest
	if !decode(ctx, c, &req) {
		return
	}
	ticket, err := service.Tickets().Create(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, ticket)
}

func UpdateTicket(ctx context.Context, c *app.RequestContext) {
	trip, ticketID, ok := tripAndRecord(ctx, c, "ticket_id")
	if !ok {
		return
	}
	var req dto.TicketRequest
	if !decode(ctx, c, &req) {
		return
	}
	ticket, err := service.Tickets().Update(ctx, trip, ticketID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, ticket)
}

func DeleteTicket(ctx context.Context, c *app.RequestContext) {
	trip, ticketID, ok := tripAndRecord(ctx, c, "ticket_id")
	if !ok {
		return
	}
	if err := service.Tickets().Delete(ctx, trip, ticketID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// RegisterTicket 登记票据，key 为参与者 ID 或 all
// PUT /v1/trips/:trip_id/tickets/:ticket_id/registrations/:key
func RegisterTicket(ctx context.Context, c *app.RequestContext) {
	trip, ticketID, ok := tripAndRecord(ctx, c, "ticket_id")
	if !ok {
		return
	}
	var req dto.RegistrationRequest
	if !decode(ctx, c, &req) {
		return
	}
	ticket, err := service.Tickets().Register(ctx, trip, ticketID, c.Param("key"), participant(c), req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, ticket)
}

// UnregisterTicket DELETE /v1/trips/:trip_id/tickets/:ticket_id/registrations/:key
func UnregisterTicket(ctx context.Context, c *app.RequestContext) {
	trip, ticketID, ok := tripAndRecord(ctx, c, "ticket_id")
	if !ok {
		return
	}
	ticket, err := service.Tickets().Unregister(ctx, trip, ticketID, c.Param("key"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, ticket)
}

// ========== Preparations ==========

// ListPreparations 个人事项显示 X-Participant-ID 对应参与者自己的勾选
// GET /v1/trips/:trip_id/preparations
func ListPreparations(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	items, err := service.Preparations().List(ctx, id, participant(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

func CreatePreparation(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.PreparationRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Preparations().Create(ctx, id, participant(c), req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

func UpdatePreparation(ctx context.Context, c *app.RequestContext) {
	trip, prepID, ok := tripAndRecord(ctx, c, "prep_id")
	if !ok {
		return
	}
	var req dto.PreparationRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Preparations().Update(ctx, trip, participant(c), prepID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

func DeletePreparation(ctx context.Context, c *app.RequestContext) {
	trip, prepID, ok := tripAndRecord(ctx, c, "prep_id")
	if !ok {
		return
	}
	if err := service.Preparations().Delete(ctx, trip, prepID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// CheckPreparation PUT /v1/trips/:trip_id/preparations/:prep_id/check
func CheckPreparation(ctx context.Context, c *app.RequestContext) {
	trip, prepID, ok := tripAndRecord(ctx, c, "prep_id")
	if !ok {
		return
	}
	var req dto.CheckRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Preparations().Check(ctx, trip, participant(c), prepID, req.Checked)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

// ========== Expenses ==========

func ListExpenses(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	items, err := service.Expenses().List(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

// GetExpenseSummary GET /v1/trips/:trip_id/expenses/summary
func GetExpenseSummary(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	sum, err := service.Expenses().Summary(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, sum)
}

func CreateExpense(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Expenses().Create(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

func UpdateExpense(ctx context.Context, c *app.RequestContext) {
	trip, expenseID, ok := tripAndRecord(ctx, c, "expense_id")
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Expenses().Update(ctx, trip, expenseID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

func DeleteExpense(ctx context.Context, c *app.RequestContext) {
	trip, expenseID, ok := tripAndRecord(ctx, c, "expense_id")
	if !ok {
		return
	}
	if err := service.Expenses().Delete(ctx, trip, expenseID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// ========== Shared infos ==========

func ListInfos(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	items, err := service.Infos().List(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

func CreateInfo(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.InfoRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Infos().Create(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

func UpdateInfo(ctx context.Context, c *app.RequestContext) {
	trip, infoID, ok := tripAndRecord(ctx, c, "info_id")
	if !ok {
		return
	}
	var req dto.InfoRequest
	if !decode(ctx, c, &req) {
		return
	}
	item, err := service.Infos().Update(ctx, trip, infoID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

func DeleteInfo(ctx context.Context, c *app.RequestContext) {
	trip, infoID, ok := tripAndRecord(ctx, c, "info_id")
	if !ok {
		return
	}
	if err := service.Infos().Delete(ctx, trip, infoID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// ========== Notices ==========

// ListNotices 最新的在前
// GET /v1/trips/:trip_id/notices
func ListNotices(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	items, err := service.Notices().List(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

func CreateNotice(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.NoticeRequest
	if !decode(ctx, c, &req) {
		return
	}
	notice, err := service.Notices().Create(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, notice)
}

func DeleteNotice(ctx context.Context, c *app.RequestContext) {
	trip, noticeID, ok := tripAndRecord(ctx, c, "notice_id")
	if !ok {
		return
	}
	if err := service.Notices().Delete(ctx, trip, noticeID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
