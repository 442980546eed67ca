package main

import (
	"context"
	"time"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/booking"
	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/persistence/sqlite"
)

// The adapters below translate between the storage row models and the domain
// types the services consume, keeping the persistence package free of any
// dependency on the booking engine.

type resourceRepositoryAdapter struct {
	storage *sqlite.Storage
}

func newResourceRepositoryAdapter(storage *sqlite.Storage) *resourceRepositoryAdapter {
	return &resourceRepositoryAdapter{storage: storage}
}

func (a *resourceRepositoryAdapter) CreateResource(ctx context.Context, resource booking.Resource) (booking.Resource, error) {
	if err := a.storage.CreateResource(ctx, toPersistenceResource(resource)); err != nil {
		return booking.Resource{}, err
	}
	return resource, nil
}

func (a *resourceRepositoryAdapter) UpdateResource(ctx context.Context, resource booking.Resource) (booking.Resource, error) {
	if err := a.storage.UpdateResource(ctx, toPersistenceResource(resource)); err != nil {
		return booking.Resource{}, err
	}
	return resource, nil
}

func (a *resourceRepositoryAdapter) GetResource(ctx context.Context, id string) (booking.Resource, error) {
	stored, err := a.storage.GetResource(ctx, id)
	if err != nil {
		return booking.Resource{}, err
	}
	return toBookingResource(stored), nil
}

func (a *resourceRepositoryAdapter) ListResources(ctx context.Context, kind booking.ResourceKind) ([]booking.Resource, error) {
	stored, err := a.storage.ListResources(ctx, string(kind))
	if err != nil {
		return nil, err
	}
	resources := make([]booking.Resource, 0, len(stored))
	for _, record := range stored {
		resources = append(resources, toBookingResource(record))
	}
	return resources, nil
}

type reservationRepositoryAdapter struct {
	storage *sqlite.Storage
}

func newReservationRepositoryAdapter(storage *sqlite.Storage) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{storage: storage}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error) {
	if err := a.storage.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return booking.Reservation{}, err
	}
	return reservation, nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error) {
	if err := a.storage.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return booking.Reservation{}, err
	}
	return reservation, nil
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (booking.Reservation, error) {
	stored, err := a.storage.GetReservation(ctx, id)
	if err != nil {
		return booking.Reservation{}, err
	}
	return toBookingReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, query application.ReservationQuery) ([]booking.Reservation, error) {
	filter := persistence.ReservationFilter{ResourceID: query.ResourceID}
	for _, status := range query.Statuses {
		filter.Statuses = append(filter.Statuses, string(status))
	}
	if query.ActiveAt != nil {
		filter.ActiveAt = &persistence.ActiveCutoff{Date: query.ActiveAt.Date, Time: query.ActiveAt.Time}
	}

	stored, err := a.storage.ListReservations(ctx, filter)
	if err != nil {
		return nil, err
	}
	reservations := make([]booking.Reservation, 0, len(stored))
	for _, record := range stored {
		reservations = append(reservations, toBookingReservation(record))
	}
	return reservations, nil
}

type userRepositoryAdapter struct {
	storage *sqlite.Storage
}

func newUserRepositoryAdapter(storage *sqlite.Storage) *userRepositoryAdapter {
	return &userRepositoryAdapter{storage: storage}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.UserCredentials) (application.UserCredentials, error) {
	if err := a.storage.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.UserCredentials{}, err
	}
	return user, nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.UserCredentials) (application.UserCredentials, error) {
	if err := a.storage.UpdateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.UserCredentials{}, err
	}
	return user, nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.UserCredentials, error) {
	stored, err := a.storage.GetUser(ctx, id)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.UserCredentials, error) {
	stored, err := a.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.UserCredentials, 0, len(stored))
	for _, record := range stored {
		users = append(users, toApplicationUser(record))
	}
	return users, nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.storage.DeleteUser(ctx, id)
}

type sessionRepositoryAdapter struct {
	storage *sqlite.Storage
}

func newSessionRepositoryAdapter(storage *sqlite.Storage) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{storage: storage}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.storage.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.storage.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.storage.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.storage.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.storage.DeleteExpiredSessions(ctx, reference)
}

func toPersistenceResource(resource booking.Resource) persistence.Resource {
	return persistence.Resource{
		ID:         resource.ID,
		Code:       resource.Code,
		Kind:       string(resource.Kind),
		Capacity:   resource.Capacity,
		Attributes: resource.Attributes,
		State:      string(resource.State),
		CreatedAt:  resource.CreatedAt,
		UpdatedAt:  resource.UpdatedAt,
	}
}

func toBookingResource(record persistence.Resource) booking.Resource {
	return booking.Resource{
		ID:         record.ID,
		Code:       record.Code,
		Kind:       booking.ResourceKind(record.Kind),
		Capacity:   record.Capacity,
		Attributes: record.Attributes,
		State:      booking.AdministrativeState(record.State),
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func toPersistenceReservation(reservation booking.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		RequesterID: reservation.RequesterID,
		StartDate:   reservation.Window.StartDate,
		EndDate:     reservation.Window.EndDate,
		StartTime:   reservation.Window.StartTime,
		EndTime:     reservation.Window.EndTime,
		Status:      string(reservation.Status),
		Reason:      reservation.Reason,
		CreatedAt:   reservation.CreatedAt,
		UpdatedAt:   reservation.UpdatedAt,
	}
}

func toBookingReservation(record persistence.Reservation) booking.Reservation {
	return booking.Reservation{
		ID:          record.ID,
		ResourceID:  record.ResourceID,
		RequesterID: record.RequesterID,
		Window: booking.Window{
			StartDate: record.StartDate,
			EndDate:   record.EndDate,
			StartTime: record.StartTime,
			EndTime:   record.EndTime,
		},
		Status:    booking.ReservationStatus(record.Status),
		Reason:    record.Reason,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func toPersistenceUser(user application.UserCredentials) persistence.User {
	return persistence.User{
		ID:             user.User.ID,
		Email:          user.User.Email,
		DisplayName:    user.User.DisplayName,
		PasswordHash:   user.PasswordHash,
		IsAdmin:        user.User.IsAdmin,
		Disabled:       user.Disabled,
		FailedAttempts: user.FailedAttempts,
		LastFailedAt:   user.LastFailedAt,
		CreatedAt:      user.User.CreatedAt,
		UpdatedAt:      user.User.UpdatedAt,
	}
}

func toApplicationUser(record persistence.User) application.UserCredentials {
	return application.UserCredentials{
		User: application.User{
			ID:          record.ID,
			Email:       record.Email,
			DisplayName: record.DisplayName,
			IsAdmin:     record.IsAdmin,
			CreatedAt:   record.CreatedAt,
			UpdatedAt:   record.UpdatedAt,
		},
		PasswordHash:   record.PasswordHash,
		Disabled:       record.Disabled,
		FailedAttempts: record.FailedAttempts,
		LastFailedAt:   record.LastFailedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   session.RevokedAt,
	}
}

func toApplicationSession(record persistence.Session) application.Session {
	return application.Session{
		ID:          record.ID,
		UserID:      record.UserID,
		Token:       record.Token,
		Fingerprint: record.Fingerprint,
		ExpiresAt:   record.ExpiresAt,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		RevokedAt:   record.RevokedAt,
	}
}
