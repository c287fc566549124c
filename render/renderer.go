// Package render draws flat-coloured triangle meshes into a GLFW window with Vulkan.
package render

import (
	"fmt"
	"log"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"cube-navigator/scene"
	"cube-navigator/shaders"
)

const maxFramesInFlight = 2

// Options configure a Renderer.
type Options struct {
	// AppName is reported to the Vulkan driver.
	AppName string

	// Validation enables the Khronos validation layer.
	Validation bool

	Program    shaders.Program
	Background scene.Color

	// CullBackFaces skips triangles facing away from the camera. Turn it off for
	// double-sided materials.
	CullBackFaces bool

	Logger *log.Logger
}

// Renderer owns every Vulkan object needed to draw into one window.
type Renderer struct {
	opts   Options
	logger *log.Logger

	// validationLayers is the list of required device extensions needed by this
	// program when validation is enabled.
	validationLayers []string

	// deviceExtensions is the list of required device extensions needed by this
	// program.
	deviceExtensions []string

	window   *glfw.Window
	instance vk.Instance

	// physicalDevice is the physical device selected for this program.
	physicalDevice vk.PhysicalDevice

	// device is the logical device created for interfacing with the physical device.
	device vk.Device

	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	surface vk.Surface

	swapChain            vk.Swapchain
	swapChainImages      []vk.Image
	swapChainImageViews  []vk.ImageView
	swapChainImageFormat vk.Format
	swapChainExtend      vk.Extent2D

	swapChainFramebuffers []vk.Framebuffer

	renderPass          vk.RenderPass
	descriptorSetLayout vk.DescriptorSetLayout
	pipelineLayout      vk.PipelineLayout

	graphicsPipline vk.Pipeline

	commandPool    vk.CommandPool
	commandBuffers []vk.CommandBuffer

	imageAvailabmeSems []vk.Semaphore
	renderFinishedSems []vk.Semaphore
	inFlightFences     []vk.Fence

	frameBufferResized bool

	curentFrame uint32

	vertexBuffer       vk.Buffer
	vertexBufferMemory vk.DeviceMemory

	indexCount        uint32
	indexBuffer       vk.Buffer
	indexBufferMemory vk.DeviceMemory

	uniformBuffers       []vk.Buffer
	uniformBuffersMemory []vk.DeviceMemory
	uniformBuffersMapped []unsafe.Pointer

	descriptorPool vk.DescriptorPool
	descriptorSets []vk.DescriptorSet

	depthImage       vk.Image
	depthImageMemory vk.DeviceMemory
	depthImageView   vk.ImageView
}

// New initialises Vulkan for window. The window must have been created with
// glfw.ClientAPI set to glfw.NoAPI.
func New(window *glfw.Window, opts Options) (*Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.AppName == "" {
		opts.AppName = "cube-navigator"
	}

	r := &Renderer{
		opts:   opts,
		logger: opts.Logger,
		window: window,
		validationLayers: []string{
			"VK_LAYER_KHRONOS_validation\x00",
		},
		deviceExtensions: []string{
			vk.KhrSwapchainExtensionName + "\x00",
		},
		physicalDevice:      vk.PhysicalDevice(vk.NullHandle),
		device:              vk.Device(vk.NullHandle),
		surface:             vk.NullSurface,
		swapChain:           vk.NullSwapchain,
		vertexBuffer:        vk.NullBuffer,
		vertexBufferMemory:  vk.NullDeviceMemory,
		indexBuffer:         vk.NullBuffer,
		indexBufferMemory:   vk.NullDeviceMemory,
		descriptorPool:      vk.NullDescriptorPool,
		descriptorSetLayout: vk.NullDescriptorSetLayout,
	}

	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init() error {
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to init Vulkan Go: %w", err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"createInstance", r.createInstance},
		{"createSurface", r.createSurface},
		{"pickPhysicalDevice", r.pickPhysicalDevice},
		{"createLogicalDevice", r.createLogicalDevice},
		{"createSwapChain", r.createSwapChain},
		{"createImageViews", r.createImageViews},
		{"createRenderPass", r.createRenderPass},
		{"createDescriptorSetLayout", r.createDescriptorSetLayout},
		{"createGraphicsPipeline", r.createGraphicsPipeline},
		{"createCommandPool", r.createCommandPool},
		{"createDepthResources", r.createDepthResources},
		{"createFramebuffers", r.createFramebuffers},
		{"createUniformBuffers", r.createUniformBuffers},
		{"createDescriptorPool", r.createDescriptorPool},
		{"createDescriptorSets", r.createDescriptorSets},
		{"createCommandBuffers", r.createCommandBuffers},
		{"createSyncObjects", r.createSyncObjects},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

// FramebufferResized makes the next frame recreate the swap chain.
func (r *Renderer) FramebufferResized() {
	r.frameBufferResized = true
}

// Extent returns the size of the swap chain images in pixels.
func (r *Renderer) Extent() (width, height uint32) {
	return r.swapChainExtend.Width, r.swapChainExtend.Height
}

// Wait blocks until the GPU finished all submitted work.
func (r *Renderer) Wait() {
	if r.device != vk.Device(vk.NullHandle) {
		vk.DeviceWaitIdle(r.device)
	}
}

// Destroy releases every Vulkan object. It is safe to call on a partly initialised
// renderer.
func (r *Renderer) Destroy() {
	r.Wait()

	for i := range r.inFlightFences {
		vk.DestroySemaphore(r.device, r.imageAvailabmeSems[i], nil)
		vk.DestroySemaphore(r.device, r.renderFinishedSems[i], nil)
		vk.DestroyFence(r.device, r.inFlightFences[i], nil)
	}
	r.imageAvailabmeSems, r.renderFinishedSems, r.inFlightFences = nil, nil, nil

	if r.commandPool != vk.CommandPool(vk.NullHandle) {
		vk.DestroyCommandPool(r.device, r.commandPool, nil)
		r.commandPool = vk.CommandPool(vk.NullHandle)
	}

	if r.graphicsPipline != vk.Pipeline(vk.NullHandle) {
		vk.DestroyPipeline(r.device, r.graphicsPipline, nil)
		r.graphicsPipline = vk.Pipeline(vk.NullHandle)
	}
	if r.pipelineLayout != vk.PipelineLayout(vk.NullHandle) {
		vk.DestroyPipelineLayout(r.device, r.pipelineLayout, nil)
		r.pipelineLayout = vk.PipelineLayout(vk.NullHandle)
	}

	r.cleanupSwapChain()

	for _, buffer := range r.uniformBuffers {
		vk.DestroyBuffer(r.device, buffer, nil)
	}
	for _, bufferMem := range r.uniformBuffersMemory {
		vk.FreeMemory(r.device, bufferMem, nil)
	}
	r.uniformBuffers, r.uniformBuffersMemory, r.uniformBuffersMapped = nil, nil, nil

	if r.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(r.device, r.descriptorPool, nil)
		r.descriptorPool = vk.NullDescriptorPool
	}

	if r.descriptorSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(r.device, r.descriptorSetLayout, nil)
		r.descriptorSetLayout = vk.NullDescriptorSetLayout
	}

	r.destroyGeometry()

	if r.renderPass != vk.RenderPass(vk.NullHandle) {
		vk.DestroyRenderPass(r.device, r.renderPass, nil)
		r.renderPass = vk.RenderPass(vk.NullHandle)
	}

	if r.device != vk.Device(vk.NullHandle) {
		vk.DestroyDevice(r.device, nil)
		r.device = vk.Device(vk.NullHandle)
	}
	if r.surface != vk.NullSurface {
		vk.DestroySurface(r.instance, r.surface, nil)
		r.surface = vk.NullSurface
	}
	if r.instance != nil {
		vk.DestroyInstance(r.instance, nil)
		r.instance = nil
	}
}
