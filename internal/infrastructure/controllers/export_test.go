package controllers

// WithExit replaces the process exit of a controller for testing.
func (it *ReleaseController) WithExit(exit func(int)) *ReleaseController {
	it.exit = exit
	return it
}

// WithExit replaces the process exit of a controller for testing.
func (it *PublishController) WithExit(exit func(int)) *PublishController {
	it.exit = exit
	return it
}
