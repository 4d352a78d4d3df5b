package repositories

import (
	"regexp"

	"task-management-app/tasks-service/domain"

	"go.mongodb.org/mongo-driver/bson"
)

var mongoSortFields = map[domain.SortField]string{
	domain.SortCreatedAt: "createdAt",
	domain.SortUpdatedAt: "updatedAt",
	domain.SortDueDate:   "dueDate",
	domain.SortTitle:     "title",
	domain.SortStatus:    "status",
	domain.SortPriority:  "priorityWeight",
}

func taskFilterBson(f domain.TaskFilter) bson.M {
	filter := bson.M{"deletedAt": nil}
	if f.OwnerId != "" {
		filter["userId"] = f.OwnerId
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}
	return filter
}

func taskSortBson(s domain.TaskSort) bson.D {
	field, ok := mongoSortFields[s.Field]
	if !ok {
		field = "createdAt"
	}
	dir := 1
	if s.Descending() {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func taskUpdateBson(p domain.TaskPatch) bson.M {
	set := bson.M{"updatedAt": p.UpdatedAt}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
		set["priorityWeight"] = p.Priority.Weight()
	}
	if p.ClearDueDate {
		set["dueDate"] = nil
	} else if p.DueDate != nil {
		set["dueDate"] = *p.DueDate
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	if p.ClearAssignee {
		set["assignedToId"] = nil
	} else if p.AssigneeId != nil {
		set["assignedToId"] = *p.AssigneeId
	}
	return bson.M{"$set": set}
}
