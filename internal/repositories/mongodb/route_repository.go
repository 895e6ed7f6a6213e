package mongodb

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type routeRepository struct {
	collection      *mongo.Collection
	alertCollection *mongo.Collection
}

func NewRouteRepository(db *mongo.Database) interfaces.RouteRepository {
	return &routeRepository{
		collection:      db.Collection("routes"),
		alertCollection: db.Collection("route_alerts"),
	}
}

func (r *routeRepository) Create(ctx context.Context, route *models.ShuttleRoute) error {
	route.ID = primitive.NewObjectID()
	route.CreatedAt = time.Now()
	route.UpdatedAt = time.Now()
	if route.Status == "" {
		route.Status = models.RouteStatusScheduled
	}
	route.MonitoringActive = true

	_, err := r.collection.InsertOne(ctx, route)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

func (r *routeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ShuttleRoute, error) {
	var route models.ShuttleRoute
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("route not found")
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return &route, nil
}

func (r *routeRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}

	return nil
}

func (r *routeRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	return r.findRoutes(ctx, bson.M{}, params)
}

// GetMonitored returns the routes the delay monitor must inspect on
// every check cycle.
func (r *routeRepository) GetMonitored(ctx context.Context) ([]*models.ShuttleRoute, error) {
	filter := bson.M{
		"monitoring_active": true,
		"status":            bson.M{"$nin": []models.RouteStatus{models.RouteStatusCompleted, models.RouteStatusCancelled}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find monitored routes: %w", err)
	}
	defer cursor.Close(ctx)

	var routes []*models.ShuttleRoute
	for cursor.Next(ctx) {
		var route models.ShuttleRoute
		if err := cursor.Decode(&route); err != nil {
			return nil, fmt.Errorf("failed to decode route: %w", err)
		}
		routes = append(routes, &route)
	}

	return routes, nil
}

func (r *routeRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	return r.findRoutes(ctx, bson.M{"driver_id": driverID}, params)
}

func (r *routeRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location, at time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"last_location":    location,
			"last_location_at": at,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update route location: %w", err)
	}

	return nil
}

func (r *routeRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"status":       bson.M{"$in": []models.RouteStatus{models.RouteStatusCompleted, models.RouteStatusCancelled}},
		"completed_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal routes: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *routeRepository) CreateAlert(ctx context.Context, alert *models.RouteAlert) error {
	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now()

	_, err := r.alertCollection.InsertOne(ctx, alert)
	if err != nil {
		return fmt.Errorf("failed to create route alert: %w", err)
	}

	return nil
}

func (r *routeRepository) GetAlertsByRoute(ctx context.Context, routeID primitive.ObjectID) ([]*models.RouteAlert, error) {
	cursor, err := r.alertCollection.Find(
		ctx,
		bson.M{"route_id": routeID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find route alerts: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeAlerts(ctx, cursor)
}

func (r *routeRepository) GetUnresolvedAlerts(ctx context.Context, params *utils.PaginationParams) ([]*models.RouteAlert, int64, error) {
	filter := bson.M{"resolved": false}

	total, err := r.alertCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count route alerts: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "" || params.Sort == "created_at" {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.alertCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find unresolved alerts: %w", err)
	}
	defer cursor.Close(ctx)

	alerts, err := decodeAlerts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (r *routeRepository) ResolveAlert(ctx context.Context, alertID primitive.ObjectID) error {
	now := time.Now()
	_, err := r.alertCollection.UpdateOne(
		ctx,
		bson.M{"_id": alertID},
		bson.M{"$set": bson.M{"resolved": true, "resolved_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}

	return nil
}

func (r *routeRepository) ResolveAlertsByRoute(ctx context.Context, routeID primitive.ObjectID) error {
	now := time.Now()
	_, err := r.alertCollection.UpdateMany(
		ctx,
		bson.M{"route_id": routeID, "resolved": false},
		bson.M{"$set": bson.M{"resolved": true, "resolved_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve route alerts: %w", err)
	}

	return nil
}

func (r *routeRepository) findRoutes(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "" || params.Sort == "created_at" {
		opts.SetSort(bson.D{{Key: "scheduled_start", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find routes: %w", err)
	}
	defer cursor.Close(ctx)

	var routes []*models.ShuttleRoute
	for cursor.Next(ctx) {
		var route models.ShuttleRoute
		if err := cursor.Decode(&route); err != nil {
			return nil, 0, fmt.Errorf("failed to decode route: %w", err)
		}
		routes = append(routes, &route)
	}

	return routes, total, nil
}

func decodeAlerts(ctx context.Context, cursor *mongo.Cursor) ([]*models.RouteAlert, error) {
	var alerts []*models.RouteAlert
	for cursor.Next(ctx) {
		var alert models.RouteAlert
		if err := cursor.Decode(&alert); err != nil {
			return nil, fmt.Errorf("failed to decode route alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}

	return alerts, nil
}
