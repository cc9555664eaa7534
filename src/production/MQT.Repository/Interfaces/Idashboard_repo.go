package interfaces

import (
	"context"

	dashboard_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/dashboard"
)

type DashboardRepository interface {
	CreateDashboard(ctx context.Context, d *dashboard_models.Dashboard) (*dashboard_models.Dashboard, error)
	GetDashboard(ctx context.Context, dashboardID string) (*dashboard_models.Dashboard, error)
	ListDashboards(ctx context.Context, userID string) ([]dashboard_models.Dashboard, error)
	UpdateDashboard(ctx context.Context, d *dashboard_models.Dashboard) error
	DeleteDashboard(ctx context.Context, dashboardID string) error
}
