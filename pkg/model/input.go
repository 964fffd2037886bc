package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

type RawAssignment struct {
	Teacher uint64
	Subject uint64
	Class   uint64
	Room    *uint64
}

type RawCatalog struct {
	Classes     []Class   `validate:"dive"`
	Teachers    []Teacher `validate:"dive"`
	Subjects    []Subject `validate:"dive"`
	Rooms       []Room    `validate:"dive"`
	Assignments []RawAssignment
}

type Class struct {
	Id   uint64
	Name string `validate:"required"`
}

type Teacher struct {
	Id   uint64
	Name string `validate:"required"`
}

type Subject struct {
	Id   uint64
	Name string `validate:"required"`
}

type Room struct {
	Id   uint64
	Name string `validate:"required"`
}

// TeachingAssignment states who teaches a subject to a class and, optionally, where
type TeachingAssignment struct {
	Teacher uint64
	Subject uint64
	Class   uint64
	Room    *uint64
}

type Catalog struct {
	Classes     []Class
	Teachers    []Teacher
	Subjects    []Subject
	Rooms       []Room
	Assignments []TeachingAssignment
}

var validate = validator.New()

func CatalogFromJson(file string) (Catalog, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Catalog{}, errors.Wrap(err, "reading catalog file")
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Catalog{}, errors.Wrap(err, "parsing catalog file")
	}

	var rawCatalog RawCatalog
	if err := mapstructure.Decode(inputJson, &rawCatalog); err != nil {
		return Catalog{}, errors.Wrap(err, "decoding catalog file")
	}
	return ProcessRawCatalog(rawCatalog)
}

func ProcessRawCatalog(rawCatalog RawCatalog) (Catalog, error) {
	if err := validate.Struct(rawCatalog); err != nil {
		return Catalog{}, errors.Wrap(ErrInvalidCatalog, err.Error())
	}

	//** Ids are positions
	catalog := Catalog{
		Classes:  lo.Map(rawCatalog.Classes, func(class Class, i int) Class { class.Id = uint64(i); return class }),
		Teachers: lo.Map(rawCatalog.Teachers, func(teacher Teacher, i int) Teacher { teacher.Id = uint64(i); return teacher }),
		Subjects: lo.Map(rawCatalog.Subjects, func(subject Subject, i int) Subject { subject.Id = uint64(i); return subject }),
		Rooms:    lo.Map(rawCatalog.Rooms, func(room Room, i int) Room { room.Id = uint64(i); return room }),
	}

	//** Subject names must be unique, since a class' assignments are indexed by subject name
	if duplicates := lo.FindDuplicates(lo.Map(catalog.Subjects, func(subject Subject, _ int) string { return subject.Name })); len(duplicates) > 0 {
		return Catalog{}, errors.Wrapf(ErrInvalidCatalog, "duplicate subject names %v", duplicates)
	}

	//** Manage assignments
	assigned := make(map[[2]uint64]bool) // (class, subject)
	catalog.Assignments = make([]TeachingAssignment, 0, len(rawCatalog.Assignments))
	for i, rawAssignment := range rawCatalog.Assignments {
		if err := catalog.checkReferences(rawAssignment); err != nil {
			return Catalog{}, errors.Wrapf(err, "assignment %d", i)
		}

		key := [2]uint64{rawAssignment.Class, rawAssignment.Subject}
		if assigned[key] {
			return Catalog{}, errors.Wrapf(ErrInvalidCatalog, "subject \"%v\" is assigned more than once to class \"%v\"", catalog.Subjects[rawAssignment.Subject].Name, catalog.Classes[rawAssignment.Class].Name)
		}
		assigned[key] = true

		catalog.Assignments = append(catalog.Assignments, TeachingAssignment(rawAssignment))
	}

	return catalog, nil
}

func (catalog Catalog) checkReferences(rawAssignment RawAssignment) error {
	if rawAssignment.Class >= uint64(len(catalog.Classes)) {
		return errors.Wrapf(ErrInvalidCatalog, "unknown class %d", rawAssignment.Class)
	} else if rawAssignment.Teacher >= uint64(len(catalog.Teachers)) {
		return errors.Wrapf(ErrInvalidCatalog, "unknown teacher %d", rawAssignment.Teacher)
	} else if rawAssignment.Subject >= uint64(len(catalog.Subjects)) {
		return errors.Wrapf(ErrInvalidCatalog, "unknown subject %d", rawAssignment.Subject)
	} else if rawAssignment.Room != nil && *rawAssignment.Room >= uint64(len(catalog.Rooms)) {
		return errors.Wrapf(ErrInvalidCatalog, "unknown room %d", *rawAssignment.Room)
	}
	return nil
}

// AssignmentsOf returns the class' teaching assignments in catalog order
func (catalog Catalog) AssignmentsOf(class uint64) []TeachingAssignment {
	return lo.Filter(catalog.Assignments, func(assignment TeachingAssignment, _ int) bool {
		return assignment.Class == class
	})
}

func (catalog Catalog) SubjectName(subject uint64) string {
	return catalog.Subjects[subject].Name
}

// Describe renders an assignment as "subject~teacher@room" for logs and CLI output
func (catalog Catalog) Describe(assignment TeachingAssignment) string {
	description := fmt.Sprintf("%v~%v", catalog.Subjects[assignment.Subject].Name, catalog.Teachers[assignment.Teacher].Name)
	if assignment.Room != nil {
		description += "@" + catalog.Rooms[*assignment.Room].Name
	}
	return description
}
