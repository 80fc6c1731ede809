package dto

import (
	"anoa.com/campusfeedback/internal/entity"
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
)

type UserIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type ListUsersQuery struct {
	Role string `form:"role" binding:"omitempty,oneof=student faculty admin"`
}

type UserList struct {
	Users []anonDto.SafeUser `json:"users"`
	Total int                `json:"total"`
}

type PostStats struct {
	Visible int64 `json:"visible"`
	Hidden  int64 `json:"hidden"`
}

type Stats struct {
	UsersByRole    map[entity.Role]int64 `json:"usersByRole"`
	PendingFaculty int64                 `json:"pendingFaculty"`
	PendingFlags   int64                 `json:"pendingFlags"`
	Posts          PostStats             `json:"posts"`
}
