// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/taskguard"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = apperr.NotFound("Task not found.")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts a task prepared by taskguard.Create.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	if t.Images == nil {
		t.Images = []models.Image{}
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID retrieves a task by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}

// List returns a workspace's tasks matching f, newest first.
func (s *Store) List(ctx context.Context, workspaceID primitive.ObjectID, f models.TaskFilter) ([]models.Task, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Query != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
	}
	return s.find(ctx, filter)
}

// ListForWorkspaces returns every task in the given workspaces.
func (s *Store) ListForWorkspaces(ctx context.Context, workspaceIDs []primitive.ObjectID) ([]models.Task, error) {
	if len(workspaceIDs) == 0 {
		return []models.Task{}, nil
	}
	return s.find(ctx, bson.M{"workspace_id": bson.M{"$in": workspaceIDs}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Apply commits a validated mutation as a single-document update and
// returns the task as stored afterwards.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, m taskguard.Mutation) (models.Task, error) {
	update := buildUpdate(m)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t models.Task
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}

func buildUpdate(m taskguard.Mutation) bson.M {
	set := bson.M{"updated_at": m.UpdatedAt}
	unset := bson.M{}
	push := bson.M{}

	if m.Title != nil {
		set["title"] = *m.Title
	}
	if m.Description != nil {
		set["description"] = *m.Description
	}
	if m.Status != nil {
		set["status"] = *m.Status
	}
	if m.Priority != nil {
		set["priority"] = *m.Priority
	}
	if m.UnsetDueDate {
		unset["due_date"] = ""
	} else if m.DueDate != nil {
		set["due_date"] = *m.DueDate
	}
	if m.UnsetAssignee {
		unset["assigned_to"] = ""
	} else if m.AssignedTo != nil {
		set["assigned_to"] = *m.AssignedTo
	}
	if m.PushComment != nil {
		push["comments"] = *m.PushComment
	}
	if m.PushImage != nil {
		push["images"] = *m.PushImage
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(push) > 0 {
		update["$push"] = push
	}
	return update
}

// Delete removes a task by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByWorkspace removes every task of a workspace.
func (s *Store) DeleteByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
