package usecase

// SaveAction is exported for testing version conflicts
var SaveAction = (*UseCases).saveAction
