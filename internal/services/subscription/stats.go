package subscription

import (
	"math"
	"time"

	"github.com/shiftlink/backend/internal/models"
)

// PlanStats aggregates subscriptions for one plan tier
type PlanStats struct {
	PlanType     models.PlanType `json:"plan_type"`
	Count        int64           `json:"count"`
	TotalRevenue float64         `json:"total_revenue"`
	ActiveCount  int64           `json:"active_count"`
}

// StatsOverview is the admin dashboard aggregate
type StatsOverview struct {
	ByPlanType         []PlanStats `json:"by_plan_type"`
	TotalRevenue       float64     `json:"total_revenue"`
	PendingRenewals    int64       `json:"pending_renewals"`
	PaymentSuccessRate float64     `json:"payment_success_rate"`
}

// Stats computes aggregate counts and revenue by plan for admins
func (s *Service) Stats() (*StatsOverview, error) {
	overview := &StatsOverview{}

	err := s.db.Model(&models.Subscription{}).
		Select("plan_type, COUNT(*) AS count, SUM(amount) AS total_revenue, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS active_count", models.SubscriptionActive).
		Group("plan_type").
		Scan(&overview.ByPlanType).Error
	if err != nil {
		return nil, err
	}

	var paidRevenue *float64
	err = s.db.Model(&models.Subscription{}).
		Select("SUM(amount)").
		Where("payment_status = ?", models.PaymentStatePaid).
		Scan(&paidRevenue).Error
	if err != nil {
		return nil, err
	}
	if paidRevenue != nil {
		overview.TotalRevenue = *paidRevenue
	}

	// Renewals due within the next 7 days
	cutoff := time.Now().Add(7 * 24 * time.Hour)
	err = s.db.Model(&models.Subscription{}).
		Where("status <> ? AND end_date <= ?", models.SubscriptionCancelled, cutoff).
		Count(&overview.PendingRenewals).Error
	if err != nil {
		return nil, err
	}

	var total, paid int64
	if err := s.db.Model(&models.Subscription{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Subscription{}).
		Where("payment_status = ?", models.PaymentStatePaid).
		Count(&paid).Error; err != nil {
		return nil, err
	}
	if total == 0 {
		overview.PaymentSuccessRate = 100
	} else {
		overview.PaymentSuccessRate = math.Round(float64(paid)/float64(total)*100*100) / 100
	}

	return overview, nil
}

// HistoryFilter narrows the admin payment-history listing
type HistoryFilter struct {
	Page      int
	Limit     int
	Status    models.PaymentState
	StartDate *time.Time
	EndDate   *time.Time
}

// Pagination describes a page of results
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalRecords int64 `json:"total_records"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// PaymentHistory returns subscriptions with their payment state for the admin
// billing view, paginated and filterable by status and creation date range
func (s *Service) PaymentHistory(filter HistoryFilter) ([]models.Subscription, *Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 25
	}

	query := s.db.Model(&models.Subscription{})
	if filter.Status != "" {
		query = query.Where("payment_status = ?", filter.Status)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		query = query.Where("created_at BETWEEN ? AND ?", *filter.StartDate, *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var subs []models.Subscription
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&subs).Error; err != nil {
		return nil, nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	pagination := &Pagination{
		CurrentPage:  filter.Page,
		TotalPages:   totalPages,
		TotalRecords: total,
		HasNext:      filter.Page < totalPages,
		HasPrev:      filter.Page > 1,
	}

	return subs, pagination, nil
}
