package packets

type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

type TrendingQuery struct {
	Days  int `form:"days,default=7"`
	Limit int `form:"limit,default=10"`
}
