package render

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"cube-navigator/unsafer"
)

// ErrIndexRange is returned by Upload for an index pointing past the vertices.
var ErrIndexRange = errors.New("index out of vertex range")

// Upload replaces the geometry drawn by every following frame. Calling it with no
// indices clears the scene.
func (r *Renderer) Upload(vertices []Vertex, indices []uint32) error {
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("index %d is %d for %d vertices: %w",
				i, idx, len(vertices), ErrIndexRange)
		}
	}

	// The buffers may still be read by frames in flight.
	r.Wait()
	r.destroyGeometry()

	if len(indices) == 0 {
		return nil
	}

	vertexBuffer, vertexBufferMemory, err := r.createDeviceLocalBuffer(
		unsafer.SliceToBytes(vertices),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
	)
	if err != nil {
		return fmt.Errorf("creating the vertex buffer: %w", err)
	}
	r.vertexBuffer = vertexBuffer
	r.vertexBufferMemory = vertexBufferMemory

	indexBuffer, indexBufferMemory, err := r.createDeviceLocalBuffer(
		unsafer.SliceToBytes(indices),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
	)
	if err != nil {
		r.destroyGeometry()
		return fmt.Errorf("creating the index buffer: %w", err)
	}
	r.indexBuffer = indexBuffer
	r.indexBufferMemory = indexBufferMemory
	r.indexCount = uint32(len(indices))

	return nil
}

func (r *Renderer) destroyGeometry() {
	if r.indexBuffer != vk.NullBuffer {
		vk.DestroyBuffer(r.device, r.indexBuffer, nil)
		r.indexBuffer = vk.NullBuffer
	}
	if r.indexBufferMemory != vk.NullDeviceMemory {
		vk.FreeMemory(r.device, r.indexBufferMemory, nil)
		r.indexBufferMemory = vk.NullDeviceMemory
	}

	if r.vertexBuffer != vk.NullBuffer {
		vk.DestroyBuffer(r.device, r.vertexBuffer, nil)
		r.vertexBuffer = vk.NullBuffer
	}
	if r.vertexBufferMemory != vk.NullDeviceMemory {
		vk.FreeMemory(r.device, r.vertexBufferMemory, nil)
		r.vertexBufferMemory = vk.NullDeviceMemory
	}

	r.indexCount = 0
}

// createDeviceLocalBuffer copies data through a staging buffer into a new buffer in
// device memory.
func (r *Renderer) createDeviceLocalBuffer(
	data []byte,
	usage vk.BufferUsageFlags,
) (vk.Buffer, vk.DeviceMemory, error) {
	bufferSize := vk.DeviceSize(len(data))

	var (
		stagingBuffer       vk.Buffer
		stagingBufferMemory vk.DeviceMemory
	)
	err := r.createBuffer(
		bufferSize,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		&stagingBuffer,
		&stagingBufferMemory,
	)
	if err != nil {
		return vk.NullBuffer, vk.NullDeviceMemory,
			fmt.Errorf("creating the staging buffer: %w", err)
	}

	defer func() {
		vk.DestroyBuffer(r.device, stagingBuffer, nil)
		vk.FreeMemory(r.device, stagingBufferMemory, nil)
	}()

	var pData unsafe.Pointer
	res := vk.MapMemory(r.device, stagingBufferMemory, 0, bufferSize, 0, &pData)
	if err := vk.Error(res); err != nil {
		return vk.NullBuffer, vk.NullDeviceMemory,
			fmt.Errorf("mapping the staging buffer: %w", err)
	}
	vk.Memcopy(pData, data)
	vk.UnmapMemory(r.device, stagingBufferMemory)

	var (
		buffer       vk.Buffer
		bufferMemory vk.DeviceMemory
	)
	err = r.createBuffer(
		bufferSize,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		&buffer,
		&bufferMemory,
	)
	if err != nil {
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}

	if err := r.copyBuffer(stagingBuffer, buffer, bufferSize); err != nil {
		vk.DestroyBuffer(r.device, buffer, nil)
		vk.FreeMemory(r.device, bufferMemory, nil)
		return vk.NullBuffer, vk.NullDeviceMemory,
			fmt.Errorf("failed to copy staging buffer: %w", err)
	}

	return buffer, bufferMemory, nil
}

func (r *Renderer) createBuffer(
	size vk.DeviceSize,
	usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags,
	buffer *vk.Buffer,
	bufferMemory *vk.DeviceMemory,
) error {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	res := vk.CreateBuffer(r.device, &bufferInfo, nil, buffer)
	if res != vk.Success {
		return fmt.Errorf("failed to create buffer: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(r.device, *buffer, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(r.device, *buffer, nil)
		return err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(r.device, &allocInfo, nil, bufferMemory)
	if res != vk.Success {
		vk.DestroyBuffer(r.device, *buffer, nil)
		return fmt.Errorf("failed to allocate buffer memory: %w", vk.Error(res))
	}

	res = vk.BindBufferMemory(r.device, *buffer, *bufferMemory, 0)
	if res != vk.Success {
		vk.DestroyBuffer(r.device, *buffer, nil)
		vk.FreeMemory(r.device, *bufferMemory, nil)
		return fmt.Errorf("failed to bind buffer memory: %w", vk.Error(res))
	}

	return nil
}

func (r *Renderer) createImage(
	width uint32,
	height uint32,
	format vk.Format,
	tiling vk.ImageTiling,
	usage vk.ImageUsageFlags,
	properties vk.MemoryPropertyFlags,
	image *vk.Image,
	imageMemory *vk.DeviceMemory,
) error {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	res := vk.CreateImage(r.device, &imageInfo, nil, image)
	if res != vk.Success {
		return fmt.Errorf("failed to create an image: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(r.device, *image, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(r.device, &allocInfo, nil, imageMemory)
	if res != vk.Success {
		return fmt.Errorf("failed to allocate image memory: %w", vk.Error(res))
	}

	res = vk.BindImageMemory(r.device, *image, *imageMemory, 0)
	if res != vk.Success {
		return fmt.Errorf("failed to bind image memory: %w", vk.Error(res))
	}

	return nil
}

func (r *Renderer) findMemoryType(
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(r.physicalDevice, &memProperties)
	memProperties.Deref()

	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memType := memProperties.MemoryTypes[i]
		memType.Deref()

		if typeFilter&(1<<i) == 0 {
			continue
		}

		if memType.PropertyFlags&properties != properties {
			continue
		}

		return i, nil
	}

	return 0, fmt.Errorf("failed to find suitable memory type")
}

func (r *Renderer) copyBuffer(
	srcBuffer vk.Buffer,
	dstBuffer vk.Buffer,
	size vk.DeviceSize,
) error {
	commandBuffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return fmt.Errorf("failed to begin single time commands: %w", err)
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}

	vk.CmdCopyBuffer(commandBuffer, srcBuffer, dstBuffer, 1, []vk.BufferCopy{copyRegion})

	return r.endSingleTimeCommands(commandBuffer)
}

func (r *Renderer) beginSingleTimeCommands() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        r.commandPool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	res := vk.AllocateCommandBuffers(r.device, &allocInfo, commandBuffers)
	if res != vk.Success {
		return nil, fmt.Errorf("failed to allocate command buffer: %w", vk.Error(res))
	}
	commandBuffer := commandBuffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	vk.BeginCommandBuffer(commandBuffer, &beginInfo)

	return commandBuffer, nil
}

func (r *Renderer) endSingleTimeCommands(commandBuffer vk.CommandBuffer) error {
	commandBuffers := []vk.CommandBuffer{commandBuffer}

	defer func() {
		vk.FreeCommandBuffers(r.device, r.commandPool, 1, commandBuffers)
	}()

	res := vk.EndCommandBuffer(commandBuffer)
	if res != vk.Success {
		return fmt.Errorf("failed end command buffer: %w", vk.Error(res))
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}

	res = vk.QueueSubmit(r.graphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)
	if res != vk.Success {
		return fmt.Errorf("failed to submit to graphics queue: %w", vk.Error(res))
	}

	res = vk.QueueWaitIdle(r.graphicsQueue)
	if res != vk.Success {
		return fmt.Errorf("failed to wait on graphics queue idle: %w", vk.Error(res))
	}

	return nil
}

// createUniformBuffers makes one persistently mapped buffer per frame in flight.
func (r *Renderer) createUniformBuffers() error {
	bufferSize := vk.DeviceSize(unsafe.Sizeof(UniformBufferObject{}))

	for i := 0; i < maxFramesInFlight; i++ {
		var (
			buffer       vk.Buffer
			bufferMemory vk.DeviceMemory
		)
		err := r.createBuffer(
			bufferSize,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
				vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
			&buffer,
			&bufferMemory,
		)
		if err != nil {
			return fmt.Errorf("creating buffer[%d]: %w", i, err)
		}

		r.uniformBuffers = append(r.uniformBuffers, buffer)
		r.uniformBuffersMemory = append(r.uniformBuffersMemory, bufferMemory)

		var pData unsafe.Pointer
		res := vk.MapMemory(r.device, bufferMemory, 0, bufferSize, 0, &pData)
		if err := vk.Error(res); err != nil {
			return fmt.Errorf("mapping buffer[%d]: %w", i, err)
		}
		r.uniformBuffersMapped = append(r.uniformBuffersMapped, pData)
	}

	return nil
}

func (r *Renderer) createDescriptorPool() error {
	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: maxFramesInFlight,
		},
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       maxFramesInFlight,
	}

	var descriptorPool vk.DescriptorPool
	res := vk.CreateDescriptorPool(r.device, &poolInfo, nil, &descriptorPool)
	if res != vk.Success {
		return fmt.Errorf("failed to create descriptor pool: %w", vk.Error(res))
	}
	r.descriptorPool = descriptorPool

	return nil
}

func (r *Renderer) createDescriptorSets() error {
	layouts := make([]vk.DescriptorSetLayout, maxFramesInFlight)
	for i := range layouts {
		layouts[i] = r.descriptorSetLayout
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.descriptorPool,
		DescriptorSetCount: maxFramesInFlight,
		PSetLayouts:        layouts,
	}

	r.descriptorSets = make([]vk.DescriptorSet, maxFramesInFlight)

	res := vk.AllocateDescriptorSets(r.device, &allocInfo, &r.descriptorSets[0])
	if res != vk.Success {
		return fmt.Errorf("failed to allocate descriptor set: %w", vk.Error(res))
	}

	for i := 0; i < maxFramesInFlight; i++ {
		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: r.uniformBuffers[i],
			Offset: 0,
			Range:  vk.DeviceSize(vk.WholeSize),
		}

		descriptorWrites := []vk.WriteDescriptorSet{
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          r.descriptorSets[i],
				DstBinding:      0,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
			},
		}

		vk.UpdateDescriptorSets(
			r.device,
			uint32(len(descriptorWrites)),
			descriptorWrites,
			0,
			nil,
		)
	}

	return nil
}
