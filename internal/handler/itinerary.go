package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"TripMate/internal/model/dto"
	"TripMate/internal/service"
	"TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/response"
)

// ListItinerary 按天分组的条目，meta.loading 表示仍有数据在拉取
// GET /v1/trips/:trip_id/itinerary
func ListItinerary(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	days, loading, err := service.Itinerary().List(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, days, map[string]interface{}{"loading": loading})
}

// CreateEntry 新增条目
// POST /v1/trips/:trip_id/itinerary
func CreateEntry(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.CreateEntryRequest
	if !decode(ctx, c, &req) {
		return
	}
	entry, err := service.Itinerary().Create(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, entry)
}

// UpdateEntry 部分更新
// PATCH /v1/trips/:trip_id/itinerary/:entry_id
func UpdateEntry(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	var req dto.UpdateEntryRequest
	if !decode(ctx, c, &req) {
		return
	}
	entry, err := service.Itinerary().Update(ctx, trip, entryID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, entry)
}

// DeleteEntry 删除条目
// DELETE /v1/trips/:trip_id/itinerary/:entry_id
func DeleteEntry(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	if err := service.Itinerary().Remove(ctx, trip, entryID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// ToggleEntryCheck PUT /v1/trips/:trip_id/itinerary/:entry_id/check
func ToggleEntryCheck(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	var req dto.ToggleCheckRequest
	if !decode(ctx, c, &req) {
		return
	}
	entry, err := service.Itinerary().ToggleCheck(ctx, trip, entryID, req.Checked)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, entry)
}

// UploadEntryImage 上传卡片背景图，表单字段 file
// POST /v1/trips/:trip_id/itinerary/:entry_id/image
func UploadEntryImage(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		logger.Logger.Warn("Failed to open uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("cannot read uploaded file"))
		return
	}
	defer f.Close()

	entry, err := service.Itinerary().UploadImage(ctx, trip, entryID, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, entry)
}

// AdjustEntryImage 拖拽/缩放后保存定位
// PATCH /v1/trips/:trip_id/itinerary/:entry_id/image
func AdjustEntryImage(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	var req dto.ImagePlacementRequest
	if !decode(ctx, c, &req) {
		return
	}
	entry, err := service.Itinerary().AdjustImage(ctx, trip, entryID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, entry)
}

// RemoveEntryImage DELETE /v1/trips/:trip_id/itinerary/:entry_id/image
func RemoveEntryImage(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	entry, err := service.Itinerary().RemoveImage(ctx, trip, entryID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, entry)
}

// GetDayMap 当天路线地图，可选 zoom 滑块值和 steps 缩放步数
// GET /v1/trips/:trip_id/days/:day/map?zoom=12&steps=-1
func GetDayMap(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		response.Error(ctx, c, errors.InvalidPath.WithMessage("invalid day"))
		return
	}
	controls, err := mapControls(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	view, err := service.Itinerary().DayMap(ctx, id, day, controls)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, view)
}

// GetLinkedName 反向查询关联条目标题
// GET /v1/trips/:trip_id/links/:entry_id/name
func GetLinkedName(ctx context.Context, c *app.RequestContext) {
	trip, entryID, ok := tripAndRecord(ctx, c, "entry_id")
	if !ok {
		return
	}
	name, err := service.Itinerary().LinkedName(ctx, trip, entryID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, name)
}

func mapControls(c *app.RequestContext) (dto.MapControls, error) {
	var controls dto.MapControls
	if raw := c.Query("zoom"); raw != "" {
		z, err := strconv.Atoi(raw)
		if err != nil {
			return controls, errors.InvalidRequest.WithMessage("invalid zoom")
		}
		controls.Zoom = &z
	}
	if raw := c.Query("steps"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return controls, errors.InvalidRequest.WithMessage("invalid steps")
		}
		controls.Steps = n
	}
	return controls, nil
}
