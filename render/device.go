package render

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"cube-navigator/queues"
)

type swapChainSupportDetails struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func (r *Renderer) createInstance() error {
	if r.opts.Validation && !r.checkValidationSupport() {
		return fmt.Errorf("validation layers requested but not available")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   r.opts.AppName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	glfwExtensions := r.window.GetRequiredInstanceExtensions()
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(glfwExtensions)),
		PpEnabledExtensionNames: glfwExtensions,
	}

	if r.opts.Validation {
		createInfo.EnabledLayerCount = uint32(len(r.validationLayers))
		createInfo.PpEnabledLayerNames = r.validationLayers
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return fmt.Errorf("failed to create Vulkan instance: %w", err)
	}

	r.instance = instance
	return nil
}

func (r *Renderer) createSurface() error {
	surfacePtr, err := r.window.CreateWindowSurface(r.instance, nil)
	if err != nil {
		return fmt.Errorf("cannot create surface within GLFW window: %w", err)
	}

	r.surface = vk.SurfaceFromPointer(surfacePtr)
	return nil
}

func (r *Renderer) pickPhysicalDevice() error {
	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(r.instance, &deviceCount, nil))
	if err != nil {
		return fmt.Errorf("failed to get the number of physical devices: %w", err)
	}
	if deviceCount == 0 {
		return fmt.Errorf("failed to find GPUs with Vulkan support")
	}

	pDevices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(r.instance, &deviceCount, pDevices))
	if err != nil {
		return fmt.Errorf("failed to enumerate the physical devices: %w", err)
	}

	var (
		selectedDevice vk.PhysicalDevice
		score          uint32
	)

	for _, device := range pDevices {
		deviceScore := r.getDeviceScore(device)

		if deviceScore > score {
			selectedDevice = device
			score = deviceScore
		}
	}

	if selectedDevice == vk.PhysicalDevice(vk.NullHandle) {
		return fmt.Errorf("failed to find suitable physical devices")
	}

	r.physicalDevice = selectedDevice
	return nil
}

func (r *Renderer) createLogicalDevice() error {
	indices := r.findQueueFamilies(r.physicalDevice)
	if !indices.IsComplete() {
		return fmt.Errorf("createLogicalDevice called for physical device which does " +
			"have all the queues required by the program")
	}

	var queueCreateInfos []vk.DeviceQueueCreateInfo
	for _, familyIndex := range indices.Unique() {
		queueCreateInfos = append(
			queueCreateInfos,
			vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: familyIndex,
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			},
		)
	}

	createInfo := vk.DeviceCreateInfo{
		SType:            vk.StructureTypeDeviceCreateInfo,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{}},

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(r.deviceExtensions)),
		PpEnabledExtensionNames: r.deviceExtensions,
	}

	if r.opts.Validation {
		createInfo.PpEnabledLayerNames = r.validationLayers
		createInfo.EnabledLayerCount = uint32(len(r.validationLayers))
	}

	var device vk.Device
	err := vk.Error(vk.CreateDevice(r.physicalDevice, &createInfo, nil, &device))
	if err != nil {
		return fmt.Errorf("failed to create logical device: %w", err)
	}
	r.device = device

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(r.device, indices.Graphics.Get(), 0, &graphicsQueue)
	r.graphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(r.device, indices.Present.Get(), 0, &presentQueue)
	r.presentQueue = presentQueue

	return nil
}

// findQueueFamilies returns the Vulkan queue families needed by the renderer.
func (r *Renderer) findQueueFamilies(device vk.PhysicalDevice) queues.FamilyIndices {
	indices := queues.FamilyIndices{}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i, family := range queueFamilies {
		family.Deref()

		if family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics.Set(uint32(i))
		}

		var hasPresent vk.Bool32
		err := vk.Error(
			vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), r.surface, &hasPresent),
		)
		if err != nil {
			r.logger.Printf("error querying surface support for queue family %d: %s", i, err)
		} else if hasPresent.B() {
			indices.Present.Set(uint32(i))
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices
}

func (r *Renderer) querySwapChainSupport(
	device vk.PhysicalDevice,
) (swapChainSupportDetails, error) {
	details := swapChainSupportDetails{}

	var capabilities vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(device, r.surface, &capabilities)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface capabilities: %w", err)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	details.capabilities = capabilities

	var formatCount uint32
	res = vk.GetPhysicalDeviceSurfaceFormats(device, r.surface, &formatCount, nil)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface formats: %w", err)
	}

	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(device, r.surface, &formatCount, formats)
		for _, format := range formats {
			format.Deref()
			details.formats = append(details.formats, format)
		}
	}

	var presentModeCount uint32
	res = vk.GetPhysicalDeviceSurfacePresentModes(
		device, r.surface, &presentModeCount, nil,
	)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface present modes: %w", err)
	}

	if presentModeCount != 0 {
		presentModes := make([]vk.PresentMode, presentModeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(
			device, r.surface, &presentModeCount, presentModes,
		)
		details.presentModes = presentModes
	}

	return details, nil
}

// getDeviceScore returns how suitable is this device for the renderer. Bigger score
// means better. Zero means the device cannot be used.
func (r *Renderer) getDeviceScore(device vk.PhysicalDevice) uint32 {
	var (
		deviceScore uint32
		properties  vk.PhysicalDeviceProperties
	)

	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		deviceScore += 1000
	} else {
		deviceScore++
	}

	if !r.isDeviceSuitable(device) {
		deviceScore = 0
	}

	if r.opts.Validation {
		r.logger.Printf(
			"Available device: %s (score: %d)",
			vk.ToString(properties.DeviceName[:]),
			deviceScore,
		)
	}

	return deviceScore
}

func (r *Renderer) isDeviceSuitable(device vk.PhysicalDevice) bool {
	indices := r.findQueueFamilies(device)
	if !indices.IsComplete() || !r.checkDeviceExtensionSupport(device) {
		return false
	}

	swapChainSupport, err := r.querySwapChainSupport(device)
	if err != nil {
		r.logger.Printf("WARNING: %s", err)
		return false
	}

	return len(swapChainSupport.formats) > 0 && len(swapChainSupport.presentModes) > 0
}

func (r *Renderer) checkDeviceExtensionSupport(device vk.PhysicalDevice) bool {
	var extensionsCount uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount, nil)
	if err := vk.Error(res); err != nil {
		r.logger.Printf(
			"WARNING: enumerating device (%d) extension properties count: %s",
			device,
			err,
		)
		return false
	}

	availableExtensions := make([]vk.ExtensionProperties, extensionsCount)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount,
		availableExtensions)
	if err := vk.Error(res); err != nil {
		r.logger.Printf("WARNING: getting device (%d) extension properties: %s", device, err)
		return false
	}

	names := make([]string, 0, len(availableExtensions))
	for _, extension := range availableExtensions {
		extension.Deref()
		names = append(names, vk.ToString(extension.ExtensionName[:])+"\x00")
	}

	return len(missingNames(r.deviceExtensions, names)) == 0
}

func (r *Renderer) checkValidationSupport() bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	availableLayers := make([]vk.LayerProperties, count)

	if vk.EnumerateInstanceLayerProperties(&count, availableLayers) != vk.Success {
		return false
	}

	availableLayersStr := make([]string, 0, count)
	for _, layer := range availableLayers {
		layer.Deref()

		layerName := vk.ToString(layer.LayerName[:])
		availableLayersStr = append(availableLayersStr, layerName+"\x00")
	}

	missing := missingNames(r.validationLayers, availableLayersStr)
	for _, name := range missing {
		r.logger.Printf("Validation layer %q is not available", name)
	}

	return len(missing) == 0
}

// missingNames returns the entries of required which are not in available.
func missingNames(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
