package dashboard

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// PageCount is never below 1 so an empty result still reads "page 1 of 1".
func (p Pagination) PageCount() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

func (p Pagination) HasNext() bool {
	return p.Page*p.PageSize < p.Total
}

type Summary struct {
	PageRevenue float64 `json:"page_revenue"`
	TotalOrders int     `json:"total_orders"`
	CurrentPage int     `json:"current_page"`
}
