package router

import (
	"net/http"

	"github.com/Renal37/bankaccount/internal/middlewares"
	"github.com/Renal37/bankaccount/internal/models"
)

func GetDeployment(w http.ResponseWriter, r *http.Request) {
	deploymentService := middlewares.GetServiceFromContext[models.DeploymentService](w, r, middlewares.DeploymentServiceKey)
	if deploymentService == nil {
		return
	}

	middlewares.EncodeJSONResponse(w, (*deploymentService).Descriptor())
}
