package dto

import "anoa.com/campusfeedback/internal/entity"

type ListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
	Skip  int `form:"skip" binding:"omitempty,min=0"`
}

type NotificationList struct {
	Notifications []entity.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Limit         int                   `json:"limit"`
	Skip          int                   `json:"skip"`
}
