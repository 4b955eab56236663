package model

import "strconv"

// Record 带 ID 的表记录
type Record interface {
	GetID() int64
}

// Linkable 可以挂到日程条目上的记录
type Linkable interface {
	Record
	LinkedEntryID() *int64
}

// LinkRef 关联字段，嵌入到四类可关联记录中
type LinkRef struct {
	LinkedItineraryID *int64 `gorm:"index" json:"linked_itinerary_id"`
}

func (l LinkRef) LinkedEntryID() *int64 {
	return l.LinkedItineraryID
}

// TicketMode 票务登记方式
type TicketMode string

const (
	TicketModeIndividual TicketMode = "individual"
	TicketModeGroup      TicketMode = "group"
)

// GroupRegistrationKey group 模式下唯一的登记键
const GroupRegistrationKey = "all"

func (m TicketMode) Valid() bool {
	return m == TicketModeIndividual || m == TicketModeGroup
}

// TicketType 票种，例如机票、通票
type TicketType struct {
	BaseModel
	LinkRef
	TripID        int64          `gorm:"not null;index" json:"trip_id"`
	Name          string         `gorm:"type:varchar(100);not null" json:"name"`
	Mode          TicketMode     `gorm:"type:varchar(20);not null" json:"mode"`
	Registrations []Registration `gorm:"foreignKey:TicketTypeID" json:"registrations"`
}

func (TicketType) TableName() string {
	return "ticket_types"
}

// Required 需要的登记数
func (t *TicketType) Required(participantCount int) int {
	if t.Mode == TicketModeGroup {
		return 1
	}
	return participantCount
}

// Complete 登记数达到需要数即视为完成
func (t *TicketType) Complete(participantCount int) bool {
	return len(t.Registrations) >= t.Required(participantCount)
}

// Badge 票务页徽标文案
func (t *TicketType) Badge(participantCount int) string {
	if t.Complete(participantCount) {
		return "COMPLETE"
	}
	return "WAITING (" + strconv.Itoa(len(t.Registrations)) + "/" + strconv.Itoa(t.Required(participantCount)) + ")"
}

// RegistrationType 登记内容类型
type RegistrationType string

const (
	RegistrationQR      RegistrationType = "QR"
	RegistrationBarcode RegistrationType = "Barcode"
	RegistrationURL     RegistrationType = "URL"
	RegistrationImage   RegistrationType = "Image"
)

func (r RegistrationType) Valid() bool {
	switch r {
	case RegistrationQR, RegistrationBarcode, RegistrationURL, RegistrationImage:
		return true
	}
	return false
}

// Registration 某个参与者（或全体）的票据
type Registration struct {
	BaseModel
	TicketTypeID int64            `gorm:"not null;uniqueIndex:idx_registration_key,priority:1" json:"ticket_type_id"`
	Key          string           `gorm:"type:varchar(32);not null;uniqueIndex:idx_registration_key,priority:2" json:"key"`
	Type         RegistrationType `gorm:"type:varchar(16);not null" json:"type"`
	Code         string           `gorm:"type:text" json:"code,omitempty"`
	ImageURL     string           `gorm:"type:text" json:"image_url,omitempty"`
	UploadedBy   int64            `gorm:"not null" json:"uploaded_by"`
}

func (Registration) TableName() string {
	return "ticket_registrations"
}

// PreparationType 准备事项类型
type PreparationType string

const (
	PreparationCommon   PreparationType = "common"
	PreparationPersonal PreparationType = "personal"
)

func (p PreparationType) Valid() bool {
	return p == PreparationCommon || p == PreparationPersonal
}

// Preparation 行前准备事项；personal 类型的勾选状态按参与者单独存储
type Preparation struct {
	BaseModel
	LinkRef
	TripID     int64           `gorm:"not null;index" json:"trip_id"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Type       PreparationType `gorm:"type:varchar(16);not null" json:"type"`
	Checked    bool            `gorm:"not null;default:false" json:"checked"`
	AssignedTo *int64          `json:"assigned_to"`
}

func (Preparation) TableName() string {
	return "preparations"
}

// PreparationCheck personal 事项的个人勾选状态
type PreparationCheck struct {
	BaseModel
	PreparationID int64 `gorm:"not null;uniqueIndex:idx_prep_check,priority:1" json:"preparation_id"`
	ParticipantID int64 `gorm:"not null;uniqueIndex:idx_prep_check,priority:2" json:"participant_id"`
	Checked       bool  `gorm:"not null;default:false" json:"checked"`
}

func (PreparationCheck) TableName() string {
	return "preparation_checks"
}

// Expense 共同账本的一笔支出，金额单位为韩元整数
type Expense struct {
	BaseModel
	LinkRef
	TripID   int64  `gorm:"not null;index" json:"trip_id"`
	Title    string `gorm:"type:varchar(200);not null" json:"title"`
	Amount   int64  `gorm:"not null;check:amount >= 0" json:"amount"`
	Payer    string `gorm:"type:varchar(50)" json:"payer"`
	Category string `gorm:"type:varchar(50)" json:"category"`
}

func (Expense) TableName() string {
	return "expenses"
}

// SharedInfo 共享的旅行信息，类别为开放集合
type SharedInfo struct {
	BaseModel
	LinkRef
	TripID   int64  `gorm:"not null;index" json:"trip_id"`
	Title    string `gorm:"type:varchar(200);not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	Category string `gorm:"type:varchar(30)" json:"category"`
}

func (SharedInfo) TableName() string {
	return "shared_infos"
}

// Notice 公告，不与日程关联
type Notice struct {
	BaseModel
	TripID  int64  `gorm:"not null;index" json:"trip_id"`
	Content string `gorm:"type:text;not null" json:"content"`
	Author  string `gorm:"type:varchar(50)" json:"author"`
}

func (Notice) TableName() string {
	return "notices"
}
