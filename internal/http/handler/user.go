package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"userapi/internal/orm"
	"userapi/internal/service"
)

func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func parseFields(c *fiber.Ctx) (orm.Fields, error) {
	var data orm.Fields
	if err := c.BodyParser(&data); err != nil {
		return nil, err
	}
	if data == nil {
		data = orm.Fields{}
	}
	return data, nil
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} service.UserListResult
// @Failure 500 {object} errorPayload
// @Router /users [get]
func ListUsers(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := users.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateUser godoc
// @Summary Create a user
// @Description Only name, email and password are assignable.
// @Tags users
// @Accept json
// @Produce json
// @Param user body map[string]string true "name, email, password"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /users [post]
func CreateUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := parseFields(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}
		u, err := users.Create(c.UserContext(), data)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "user id (UUID)"
// @Success 200 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /users/{id} [get]
func GetUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := users.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "user id (UUID)"
// @Param user body map[string]string true "fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /users/{id} [patch]
// @Router /users/{id} [put]
func UpdateUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		data, err := parseFields(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}
		u, err := users.Update(c.UserContext(), id, data)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Param id path string true "user id (UUID)"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /users/{id} [delete]
func DeleteUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := users.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
