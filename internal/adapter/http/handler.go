// Package http exposes the lease engine over a JSON API built with huma.
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentiq/internal/app"
	"github.com/neomorfeo/rentiq/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// LeaseResponse is the API representation of a lease.
type LeaseResponse struct {
	ID              string `json:"id" doc:"Unique identifier"`
	PropertyID      string `json:"property_id" doc:"Leased property"`
	TenantID        string `json:"tenant_id" doc:"Tenant account"`
	StartDate       string `json:"start_date" format:"date" doc:"First day of the lease"`
	EndDate         string `json:"end_date" format:"date" doc:"Last day of the lease"`
	MonthlyRent     string `json:"monthly_rent" doc:"Rent per month, snapshot of the property price"`
	SecurityDeposit string `json:"security_deposit" doc:"Deposit, snapshot of the property deposit"`
	Status          string `json:"status" doc:"Lifecycle state"`
	CreatedAt       string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt       string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toLeaseResponse(l domain.Lease) LeaseResponse {
	return LeaseResponse{
		ID:              l.ID,
		PropertyID:      l.PropertyID,
		TenantID:        l.TenantID,
		StartDate:       l.StartDate.String(),
		EndDate:         l.EndDate.String(),
		MonthlyRent:     l.MonthlyRent.StringFixed(2),
		SecurityDeposit: l.SecurityDeposit.StringFixed(2),
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:       l.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// PartyResponse identifies one side of a lease.
type PartyResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// PropertyResponse summarises the leased property.
type PropertyResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address"`
}

// LeaseDetailResponse is a lease with its property and parties.
type LeaseDetailResponse struct {
	LeaseResponse
	Property PropertyResponse `json:"property"`
	Tenant   PartyResponse    `json:"tenant"`
	Owner    PartyResponse    `json:"owner"`
}

func toParty(a domain.Account) PartyResponse {
	return PartyResponse{ID: a.ID, FullName: a.FullName(), Email: a.Email}
}

// NotificationResponse is the API representation of a notification.
type NotificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(timestampLayout),
	}
}

// --- Request Lease ---

type RequestLeaseInput struct {
	Body struct {
		PropertyID string `json:"property_id" minLength:"1" doc:"Property to lease"`
		StartMonth int    `json:"start_month" doc:"First month of the lease (1-12, current year)"`
		EndMonth   int    `json:"end_month" doc:"Last month of the lease (1-12, current year)"`
	}
}

type LeaseOutput struct {
	Body LeaseResponse
}

// --- Update Status ---

type UpdateStatusInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		Status string `json:"status" enum:"PENDING,PREBOOKED,ACTIVE,TERMINATED,EXPIRED" doc:"Target status"`
	}
}

// --- Owner Leases ---

type OwnerLeasesInput struct {
	OwnerID string `path:"ownerId" doc:"Owner account ID"`
	Status  string `query:"status" required:"true" enum:"PENDING,PREBOOKED,ACTIVE,TERMINATED,EXPIRED" doc:"Lease status"`
}

type OwnerLeasesOutput struct {
	Body []LeaseResponse
}

// --- Get Lease ---

type GetLeaseInput struct {
	ID string `path:"id" doc:"Lease ID"`
}

type GetLeaseOutput struct {
	Body LeaseDetailResponse
}

// --- Export Contract ---

type ExportContractOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// --- Notifications ---

type ListNotificationsInput struct {
	Limit  int `query:"limit" required:"false" default:"20" doc:"Max results (capped at 100)"`
	Offset int `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListNotificationsOutput struct {
	Body []NotificationResponse
}

type MarkReadInput struct {
	ID string `path:"id" doc:"Notification ID"`
}

// Register adds all lease and notification routes to the Huma API.
func Register(api huma.API, leases *app.LeaseService, notifications *app.NotificationService) {
	huma.Register(api, huma.Operation{
		OperationID:   "request-lease",
		Method:        http.MethodPost,
		Path:          "/api/v1/leases",
		Summary:       "Request a lease",
		Description:   "Creates a PENDING lease on a free property, or a PREBOOKED lease behind an ACTIVE lease that ends within 15 days of the requested start.",
		Tags:          []string{"Leases"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RequestLeaseInput) (*LeaseOutput, error) {
		lease, err := leases.RequestLease(ctx, CallerFrom(ctx), app.LeaseRequest{
			PropertyID: input.Body.PropertyID,
			StartMonth: input.Body.StartMonth,
			EndMonth:   input.Body.EndMonth,
		})
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &LeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-lease-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/leases/{id}/status",
		Summary:     "Move a lease to a new status",
		Description: "Owner-driven transitions only: confirm or reject a pending lease, cancel a pre-booking, terminate or expire an active lease.",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *UpdateStatusInput) (*LeaseOutput, error) {
		lease, err := leases.UpdateLeaseStatus(ctx, CallerFrom(ctx), input.ID, domain.LeaseStatus(input.Body.Status))
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &LeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-owner-leases",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{ownerId}/leases",
		Summary:     "List an owner's leases by status",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *OwnerLeasesInput) (*OwnerLeasesOutput, error) {
		list, err := leases.LeasesByOwnerAndStatus(ctx, CallerFrom(ctx), input.OwnerID, domain.LeaseStatus(input.Status))
		if err != nil {
			return nil, toAPIError(ctx, err)
		}

		resp := make([]LeaseResponse, len(list))
		for i, l := range list {
			resp[i] = toLeaseResponse(l)
		}
		return &OwnerLeasesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lease",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases/{id}",
		Summary:     "Get a lease with its parties",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *GetLeaseInput) (*GetLeaseOutput, error) {
		d, err := leases.GetLease(ctx, CallerFrom(ctx), input.ID)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &GetLeaseOutput{Body: LeaseDetailResponse{
			LeaseResponse: toLeaseResponse(d.Lease),
			Property:      PropertyResponse{ID: d.Property.ID, Title: d.Property.Title, Address: d.Property.Address},
			Tenant:        toParty(d.Tenant),
			Owner:         toParty(d.Owner),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-lease-contract",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases/{id}/contract",
		Summary:     "Download the lease contract",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *GetLeaseInput) (*ExportContractOutput, error) {
		doc, err := leases.ExportLease(ctx, CallerFrom(ctx), input.ID)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &ExportContractOutput{
			ContentType:        doc.ContentType,
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", doc.Filename),
			Body:               doc.Data,
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List the caller's notifications, newest first",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, input *ListNotificationsInput) (*ListNotificationsOutput, error) {
		list, err := notifications.List(ctx, CallerFrom(ctx), domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, toAPIError(ctx, err)
		}

		resp := make([]NotificationResponse, len(list))
		for i, n := range list {
			resp[i] = toNotificationResponse(n)
		}
		return &ListNotificationsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "mark-notification-read",
		Method:        http.MethodPost,
		Path:          "/api/v1/notifications/{id}/read",
		Summary:       "Mark a notification as read",
		Tags:          []string{"Notifications"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *MarkReadInput) (*struct{}, error) {
		if err := notifications.MarkRead(ctx, CallerFrom(ctx), input.ID); err != nil {
			return nil, toAPIError(ctx, err)
		}
		return nil, nil
	})
}
