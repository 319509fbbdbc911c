package service

import (
	"context"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"

	"github.com/google/uuid"
)

// BusinessService manages the location/machine registry. Machines registered
// here are the canonical identities machine entries reference.
type BusinessService interface {
	Create(ctx context.Context, req dto.CreateBusinessRequest) (*dto.BusinessResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BusinessResponse, error)
	List(ctx context.Context) ([]dto.BusinessResponse, error)
	AddMachine(ctx context.Context, businessID uuid.UUID, req dto.CreateMachineRequest) (*dto.MachineResponse, error)
	ListMachines(ctx context.Context, businessID uuid.UUID) ([]dto.MachineResponse, error)
	DeactivateMachine(ctx context.Context, id uuid.UUID) error
}

type businessService struct {
	repo        repository.BusinessRepository
	machineRepo repository.MachineRepository
}

func NewBusinessService(repo repository.BusinessRepository, machineRepo repository.MachineRepository) BusinessService {
	return &businessService{repo: repo, machineRepo: machineRepo}
}

func (s *businessService) Create(ctx context.Context, req dto.CreateBusinessRequest) (*dto.BusinessResponse, error) {
	business := &model.Business{
		Name:        req.Name,
		ReportEmail: req.ReportEmail,
		Active:      true,
	}
	if err := s.repo.Create(ctx, business); err != nil {
		return nil, err
	}
	return toBusinessResponse(business), nil
}

func (s *businessService) Get(ctx context.Context, id uuid.UUID) (*dto.BusinessResponse, error) {
	business, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("business not found")
	}
	return toBusinessResponse(business), nil
}

func (s *businessService) List(ctx context.Context) ([]dto.BusinessResponse, error) {
	businesses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.BusinessResponse, len(businesses))
	for i := range businesses {
		resp[i] = *toBusinessResponse(&businesses[i])
	}
	return resp, nil
}

func (s *businessService) AddMachine(ctx context.Context, businessID uuid.UUID, req dto.CreateMachineRequest) (*dto.MachineResponse, error) {
	if _, err := s.repo.FindByID(ctx, businessID); err != nil {
		return nil, apierror.NewNotFound("business not found")
	}
	machine := &model.Machine{
		BusinessID: businessID,
		Name:       req.Name,
		SerialNo:   req.SerialNo,
		Active:     true,
	}
	if err := s.machineRepo.Create(ctx, machine); err != nil {
		return nil, err
	}
	return toMachineResponse(machine), nil
}

func (s *businessService) ListMachines(ctx context.Context, businessID uuid.UUID) ([]dto.MachineResponse, error) {
	machines, err := s.machineRepo.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MachineResponse, len(machines))
	for i := range machines {
		resp[i] = *toMachineResponse(&machines[i])
	}
	return resp, nil
}

func (s *businessService) DeactivateMachine(ctx context.Context, id uuid.UUID) error {
	if _, err := s.machineRepo.FindByID(ctx, id); err != nil {
		return apierror.NewNotFound("machine not found")
	}
	return s.machineRepo.Deactivate(ctx, id)
}

func toBusinessResponse(b *model.Business) *dto.BusinessResponse {
	return &dto.BusinessResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		ReportEmail: b.ReportEmail,
		Active:      b.Active,
	}
}

func toMachineResponse(m *model.Machine) *dto.MachineResponse {
	return &dto.MachineResponse{
		ID:         m.ID.String(),
		BusinessID: m.BusinessID.String(),
		Name:       m.Name,
		SerialNo:   m.SerialNo,
		Active:     m.Active,
	}
}
